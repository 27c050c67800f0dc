package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/engine"
	"github.com/crimson-sun/timber/internal/engine/compactor"
	"github.com/crimson-sun/timber/internal/engine/taxonomy"
	"github.com/crimson-sun/timber/internal/logging"
	"github.com/crimson-sun/timber/internal/output"
	"github.com/crimson-sun/timber/internal/output/async"
	"github.com/crimson-sun/timber/internal/output/file"
	"github.com/crimson-sun/timber/internal/output/multi"
	"github.com/crimson-sun/timber/internal/output/stdout"
	"github.com/crimson-sun/timber/internal/output/webhook"
	"github.com/crimson-sun/timber/internal/pipeline"
)

var flags struct {
	configPath  string
	logLevel    string
	verbosity   string
	output      string
	render      string
	pretty      bool
	outputPath  string
	fileFormat  string
	webhookURL  string
	categories  []string
	concurrency int
	timeOrigin  float64
}

// loadConfig layers defaults, TIMBER_* variables, the --config file and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(flags.configPath); err != nil {
			return config.Config{}, err
		}
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("verbosity") {
		cfg.Engine.Verbosity = flags.verbosity
	}
	if f.Changed("output") {
		cfg.Output.Format = flags.output
	}
	if f.Changed("render") {
		cfg.Output.Render = flags.render
	}
	if f.Changed("pretty") {
		cfg.Output.Pretty = flags.pretty
	}
	if f.Changed("output-path") {
		cfg.Output.Path = flags.outputPath
	}
	if f.Changed("file-format") {
		cfg.Output.FileFormat = flags.fileFormat
	}
	if f.Changed("webhook-url") {
		cfg.Output.WebhookURL = flags.webhookURL
	}
	if f.Changed("categories") {
		cfg.Engine.Categories = flags.categories
	}
	if f.Changed("concurrency") {
		cfg.Engine.Concurrency = flags.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration:\n%w", err)
	}
	logging.Init(slices.Contains(cfg.Outputs(), "stdout"), logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func buildEngine(cmd *cobra.Command, cfg config.Config) *engine.Engine {
	opts := []engine.Option{
		engine.WithCategories(cfg.Engine.Categories),
		engine.WithConcurrency(cfg.Engine.Concurrency),
	}
	if cmd.Flags().Changed("time-origin") {
		opts = append(opts, engine.WithTimeOrigin(flags.timeOrigin))
	}
	return engine.New(taxonomy.New(taxonomy.DefaultGroups()), opts...)
}

func buildOutput(cfg config.Config, tax *taxonomy.Taxonomy) (output.Output, error) {
	verbosity, err := compactor.ParseVerbosity(cfg.Engine.Verbosity)
	if err != nil {
		return nil, err
	}

	var outs []output.Output
	for _, name := range cfg.Outputs() {
		var out output.Output
		switch name {
		case "stdout":
			out = stdout.New(verbosity, cfg.Output.Pretty,
				stdout.WithFormat(stdout.Format(cfg.Output.Render)),
				stdout.WithLabels(tax.Label))
		case "file":
			format, err := file.ParseFormat(cfg.Output.FileFormat)
			if err != nil {
				return nil, err
			}
			out, err = file.New(cfg.Output.Path, verbosity,
				file.WithFormat(format),
				file.WithMaxSize(cfg.Output.MaxSize))
			if err != nil {
				return nil, err
			}
		case "webhook":
			out = webhook.New(cfg.Output.WebhookURL,
				webhook.WithToken(cfg.Output.WebhookToken),
				webhook.WithVerbosity(verbosity))
		default:
			return nil, fmt.Errorf("unknown output %q", name)
		}
		if cfg.Output.Async && name != "stdout" {
			out = async.New(out)
		}
		outs = append(outs, out)
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

func newPipeline(cmd *cobra.Command, cfg config.Config, conn connector.Connector, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	eng := buildEngine(cmd, cfg)
	out, err := buildOutput(cfg, eng.Taxonomy())
	if err != nil {
		return nil, err
	}
	return pipeline.New(conn, eng, out, opts...), nil
}

func connectorConfig(cfg config.Config, provider string) connector.ConnectorConfig {
	return connector.ConnectorConfig{
		Provider: provider,
		APIKey:   cfg.Connector.APIKey,
		Endpoint: cfg.Connector.Endpoint,
		Extra:    cfg.Connector.Extra,
	}
}

// closeWithTimeout closes p, giving up after d so a stuck sink cannot hang
// the process on exit.
func closeWithTimeout(p *pipeline.Pipeline, d time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		slog.Warn("output shutdown timed out", "timeout", d)
		return context.DeadlineExceeded
	}
}
