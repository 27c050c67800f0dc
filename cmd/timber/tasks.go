package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/connector"
)

var (
	tasksSince time.Duration
	tasksLimit int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [file|dir|glob|url]...",
	Short: "Analyze trace files or URLs once",
	Long: `Reconstruct the main-thread task tree of each trace and write one result
per trace. Arguments may be trace files (.json or .json.gz), directories,
globs or http(s) URLs. With no arguments the configured endpoint is read.

The command exits non-zero when any trace fails analysis.`,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().DurationVar(&tasksSince, "since", 0, "only traces modified or created within this duration")
	tasksCmd.Flags().IntVar(&tasksLimit, "limit", 0, "maximum number of traces per source kind (0 = unlimited)")
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := connector.QueryParams{Limit: tasksLimit}
	if tasksSince > 0 {
		params.Start = time.Now().Add(-tasksSince)
	}

	urls, paths := splitSources(args)
	type query struct {
		provider string
		sources  []string
	}
	var queries []query
	switch {
	case len(args) == 0:
		queries = append(queries, query{provider: cfg.Connector.Provider})
	default:
		if len(paths) > 0 {
			queries = append(queries, query{"file", paths})
		}
		if len(urls) > 0 {
			queries = append(queries, query{"http", urls})
		}
	}

	var failed int64
	for _, q := range queries {
		ctor, err := connector.Get(q.provider)
		if err != nil {
			return err
		}
		p, err := newPipeline(cmd, cfg, ctor())
		if err != nil {
			return err
		}
		params.Sources = q.sources
		runErr := p.Query(ctx, connectorConfig(cfg, q.provider), params)
		failed += p.Failed()
		if err := closeWithTimeout(p, cfg.ShutdownTimeout); err != nil && runErr == nil {
			runErr = err
		}
		if runErr != nil {
			return runErr
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d trace(s) failed analysis", failed)
	}
	return nil
}

// splitSources separates http(s) URLs from filesystem sources.
func splitSources(args []string) (urls, paths []string) {
	for _, a := range args {
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			urls = append(urls, a)
		} else {
			paths = append(paths, a)
		}
	}
	return urls, paths
}
