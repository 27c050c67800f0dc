package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/pipeline"
)

var (
	watchInitial     bool
	watchSettle      time.Duration
	watchBatchWindow time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir|base-url]",
	Short: "Analyze traces continuously as they appear",
	Long: `Watch a directory (file connector) or poll a trace index (http connector)
and analyze every new or rewritten trace until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "analyze traces already present before watching")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0, "quiet period before a written file is read (default 250ms)")
	watchCmd.Flags().DurationVar(&watchBatchWindow, "batch-window", 0, "collect traces for this long and analyze them together")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Mode = "stream"
	if len(args) == 1 {
		cfg.Connector.Endpoint = args[0]
		cfg.Connector.Provider = "file"
		if urls, _ := splitSources(args); len(urls) > 0 {
			cfg.Connector.Provider = "http"
		}
	}
	if cmd.Flags().Changed("batch-window") {
		cfg.Stream.BatchWindow = watchBatchWindow
	}

	connCfg := connectorConfig(cfg, cfg.Connector.Provider)
	extra := make(map[string]string, len(connCfg.Extra)+2)
	for k, v := range connCfg.Extra {
		extra[k] = v
	}
	if watchInitial {
		extra["initial"] = "true"
	}
	if watchSettle > 0 {
		extra["settle"] = watchSettle.String()
	}
	connCfg.Extra = extra

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		return err
	}
	p, err := newPipeline(cmd, cfg, ctor(), pipeline.WithBatchWindow(cfg.Stream.BatchWindow, cfg.Stream.MaxBatch))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("watching for traces", "provider", cfg.Connector.Provider, "endpoint", cfg.Connector.Endpoint)
	runErr := p.Stream(ctx, connCfg)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if err := closeWithTimeout(p, cfg.ShutdownTimeout); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
