package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/timber/internal/config"

	// Register connector implementations.
	_ "github.com/crimson-sun/timber/internal/connector/file"
	_ "github.com/crimson-sun/timber/internal/connector/remote"
)

var rootCmd = &cobra.Command{
	Use:   "timber",
	Short: "Rebuild the main-thread task tree of browser performance traces",
	Long: `timber reads Chrome trace files (local, gzipped or over HTTP), finds the
page's main thread and reconstructs the nested tasks that ran on it, with
self time, task group and attributed URLs for every task.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = config.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("timber %s\n", config.Version))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "TOML config file (overrides TIMBER_* environment)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	pf.StringVarP(&flags.verbosity, "verbosity", "v", "standard", "task detail (minimal|standard|full)")
	pf.StringVarP(&flags.output, "output", "o", "stdout", "comma-separated outputs (stdout|file|webhook)")
	pf.StringVar(&flags.render, "render", "json", "stdout rendering (json|text)")
	pf.BoolVar(&flags.pretty, "pretty", false, "indent JSON written to stdout")
	pf.StringVar(&flags.outputPath, "output-path", "", "file output path")
	pf.StringVar(&flags.fileFormat, "file-format", "ndjson", "file output encoding (ndjson|msgpack)")
	pf.StringVar(&flags.webhookURL, "webhook-url", "", "webhook output URL")
	pf.StringSliceVar(&flags.categories, "categories", nil, "only analyze events in these categories")
	pf.IntVarP(&flags.concurrency, "concurrency", "j", 4, "traces analyzed in parallel")
	pf.Float64Var(&flags.timeOrigin, "time-origin", 0, "time origin in microseconds (default: first main-thread event)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
