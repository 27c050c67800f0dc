package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the release version, set at build time.
var Version = "dev"

// Config holds all timber configuration.
type Config struct {
	Mode            string          `toml:"mode"`      // "query" or "stream"
	LogLevel        string          `toml:"log_level"` // "debug", "info", "warn", "error"
	ShutdownTimeout time.Duration   `toml:"shutdown_timeout"`
	Connector       ConnectorConfig `toml:"connector"`
	Engine          EngineConfig    `toml:"engine"`
	Output          OutputConfig    `toml:"output"`
	Stream          StreamConfig    `toml:"stream"`
}

// ConnectorConfig holds connector-specific settings.
type ConnectorConfig struct {
	Provider string            `toml:"provider"`
	APIKey   string            `toml:"api_key"`
	Endpoint string            `toml:"endpoint"`
	Extra    map[string]string `toml:"extra"`
}

// EngineConfig holds analysis settings.
type EngineConfig struct {
	Verbosity   string   `toml:"verbosity"` // "minimal", "standard", "full"
	Categories  []string `toml:"categories"`
	Concurrency int      `toml:"concurrency"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format       string `toml:"format"` // comma-separated: "stdout", "file", "webhook"
	Render       string `toml:"render"` // stdout only: "json" or "text"
	Pretty       bool   `toml:"pretty"`
	Path         string `toml:"path"`
	FileFormat   string `toml:"file_format"` // "ndjson" or "msgpack"
	MaxSize      int64  `toml:"max_size"`
	WebhookURL   string `toml:"webhook_url"`
	WebhookToken string `toml:"webhook_token"`
	Async        bool   `toml:"async"`
}

// StreamConfig holds stream-mode batching settings.
type StreamConfig struct {
	BatchWindow time.Duration `toml:"batch_window"`
	MaxBatch    int           `toml:"max_batch"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Mode:            getenv("TIMBER_MODE", "query"),
		LogLevel:        getenv("TIMBER_LOG_LEVEL", "info"),
		ShutdownTimeout: getenvDuration("TIMBER_SHUTDOWN_TIMEOUT", 10*time.Second),
		Connector: ConnectorConfig{
			Provider: getenv("TIMBER_CONNECTOR", "file"),
			APIKey:   os.Getenv("TIMBER_API_KEY"),
			Endpoint: os.Getenv("TIMBER_ENDPOINT"),
			Extra:    loadConnectorExtra(),
		},
		Engine: EngineConfig{
			Verbosity:   getenv("TIMBER_VERBOSITY", "standard"),
			Categories:  getenvList("TIMBER_CATEGORIES"),
			Concurrency: getenvInt("TIMBER_CONCURRENCY", 4),
		},
		Output: OutputConfig{
			Format:       getenv("TIMBER_OUTPUT", "stdout"),
			Render:       getenv("TIMBER_RENDER", "json"),
			Pretty:       os.Getenv("TIMBER_OUTPUT_PRETTY") == "true",
			Path:         os.Getenv("TIMBER_OUTPUT_PATH"),
			FileFormat:   getenv("TIMBER_FILE_FORMAT", "ndjson"),
			MaxSize:      int64(getenvInt("TIMBER_OUTPUT_MAX_SIZE", 0)),
			WebhookURL:   os.Getenv("TIMBER_WEBHOOK_URL"),
			WebhookToken: os.Getenv("TIMBER_WEBHOOK_TOKEN"),
			Async:        os.Getenv("TIMBER_OUTPUT_ASYNC") == "true",
		},
		Stream: StreamConfig{
			BatchWindow: getenvDuration("TIMBER_BATCH_WINDOW", 0),
			MaxBatch:    getenvInt("TIMBER_MAX_BATCH", 16),
		},
	}
}

// LoadFile reads the environment like Load and then overlays the TOML file
// at path. Keys absent from the file keep their environment or default
// value. Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case "query", "stream":
	default:
		errs = append(errs, fmt.Errorf("mode must be query or stream, got %q", c.Mode))
	}
	switch c.Engine.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("verbosity must be minimal, standard or full, got %q", c.Engine.Verbosity))
	}
	if c.Engine.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Engine.Concurrency))
	}
	outputs := c.Outputs()
	if len(outputs) == 0 {
		errs = append(errs, errors.New("at least one output is required"))
	}
	for _, out := range outputs {
		switch out {
		case "stdout":
			if c.Output.Render != "json" && c.Output.Render != "text" {
				errs = append(errs, fmt.Errorf("render must be json or text, got %q", c.Output.Render))
			}
		case "file":
			if c.Output.Path == "" {
				errs = append(errs, errors.New("file output requires TIMBER_OUTPUT_PATH"))
			}
			if c.Output.FileFormat != "ndjson" && c.Output.FileFormat != "msgpack" {
				errs = append(errs, fmt.Errorf("file format must be ndjson or msgpack, got %q", c.Output.FileFormat))
			}
		case "webhook":
			if c.Output.WebhookURL == "" {
				errs = append(errs, errors.New("webhook output requires TIMBER_WEBHOOK_URL"))
			}
		default:
			errs = append(errs, fmt.Errorf("output must be stdout, file or webhook, got %q", out))
		}
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output max size must not be negative, got %d", c.Output.MaxSize))
	}
	if c.Stream.BatchWindow < 0 {
		errs = append(errs, fmt.Errorf("batch window must not be negative, got %v", c.Stream.BatchWindow))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// Outputs returns the configured output names in order.
func (c Config) Outputs() []string {
	var out []string
	for name := range strings.SplitSeq(c.Output.Format, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getenvList splits a comma-separated variable, dropping empty items.
func getenvList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadConnectorExtra reads provider-specific env vars into an Extra map.
func loadConnectorExtra() map[string]string {
	vars := []struct {
		envVar   string
		extraKey string
	}{
		{"TIMBER_SETTLE", "settle"},
		{"TIMBER_INITIAL", "initial"},
		{"TIMBER_INDEX_PATH", "index_path"},
		{"TIMBER_POLL_INTERVAL", "poll_interval"},
	}

	var m map[string]string
	for _, v := range vars {
		if val := os.Getenv(v.envVar); val != "" {
			if m == nil {
				m = make(map[string]string)
			}
			m[v.extraKey] = val
		}
	}
	return m
}
