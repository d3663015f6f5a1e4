// Package config loads the topomap configuration from YAML or TOML, layered
// over defaults and the TOPOMAP_* environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/topomap/pkg/feed"
	"github.com/dd0wney/topomap/pkg/force"
	"github.com/dd0wney/topomap/pkg/interaction"
	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/render"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/validation"
	"github.com/dd0wney/topomap/pkg/visualization"
)

// Environment overrides.
const (
	EnvLogLevel    = "TOPOMAP_LOG_LEVEL"
	EnvLogFile     = "TOPOMAP_LOG_FILE"
	EnvMetricsAddr = "TOPOMAP_METRICS_ADDR"
)

// Placer names.
const (
	PlacerSpiral       = "spiral"
	PlacerCircular     = "circular"
	PlacerHierarchical = "hierarchical"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the complete topomap configuration.
type Config struct {
	View        ViewConfig         `yaml:"view" toml:"view"`
	Force       force.Config       `yaml:"force" toml:"force"`
	Interaction interaction.Config `yaml:"interaction" toml:"interaction"`
	Render      render.Config      `yaml:"render" toml:"render"`
	Feed        feed.Config        `yaml:"feed" toml:"feed"`
	Metrics     MetricsConfig      `yaml:"metrics" toml:"metrics"`
	Log         LogConfig          `yaml:"log" toml:"log"`
}

// ViewConfig controls frame scheduling and initial placement.
type ViewConfig struct {
	FrameInterval time.Duration              `yaml:"frame_interval" toml:"frame_interval"`
	Seed          int64                      `yaml:"seed" toml:"seed"`
	Placer        string                     `yaml:"placer" toml:"placer"`
	Layout        visualization.LayoutConfig `yaml:"layout" toml:"layout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Address string `yaml:"address" toml:"address"` // empty disables the endpoint
	Path    string `yaml:"path" toml:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"` // empty logs to stderr
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			FrameInterval: time.Second / 30,
			Seed:          1,
			Placer:        PlacerSpiral,
			Layout:        visualization.DefaultLayoutConfig(),
		},
		Force:       force.DefaultConfig(),
		Interaction: interaction.DefaultConfig(),
		Render:      render.DefaultConfig(),
		Feed:        feed.DefaultConfig(),
		Metrics:     MetricsConfig{Path: "/metrics"},
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(data, filepath.Ext(path)); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, ext string) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	}
}

// ApplyEnv overrides settings from TOPOMAP_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Address = v
	}
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error { return e.Problems }

// Validate checks every section and reports all problems at once as a
// *ValidationError.
func (c *Config) Validate() error {
	v := validation.NewConfigValidator("topomap").
		RangeDuration("view.frame_interval", c.View.FrameInterval, time.Millisecond, time.Second).
		OneOf("view.placer", c.View.Placer, []string{PlacerSpiral, PlacerCircular, PlacerHierarchical})
	sections := []struct {
		name string
		cfg  validation.Validatable
	}{
		{"view.layout", &c.View.Layout},
		{"force", &c.Force},
		{"interaction", &c.Interaction},
		{"render", &c.Render},
		{"feed", &c.Feed},
	}
	for _, s := range sections {
		v.Custom(s.name, func() error { return validation.ValidateConfig(s.cfg) })
	}
	v.When(c.Metrics.Address != "", func(v *validation.ConfigValidator) {
		v.Required("metrics.path", c.Metrics.Path).
			When(c.Metrics.Path != "", func(v *validation.ConfigValidator) {
				v.Custom("metrics.path", func() error {
					if !strings.HasPrefix(c.Metrics.Path, "/") {
						return fmt.Errorf("must start with /, got %q", c.Metrics.Path)
					}
					return nil
				})
			})
	}).
		OneOf("log.level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"})

	if !v.HasErrors() {
		return nil
	}
	return &ValidationError{Problems: v.Errors()}
}

// Placer returns the configured seed placer; nil selects the model default.
func (c *Config) Placer() topology.Placer {
	switch c.View.Placer {
	case PlacerCircular:
		return visualization.NewCircularPlacer(c.View.Layout)
	case PlacerHierarchical:
		return visualization.NewHierarchicalPlacer(c.View.Layout)
	default:
		return nil
	}
}

// Logger builds the configured logger. The returned closer is non-nil when a
// log file was opened.
func (c *Config) Logger() (logging.Logger, io.Closer, error) {
	level := logging.ParseLevel(c.Log.Level)
	if c.Log.File == "" {
		return logging.NewJSONLogger(os.Stderr, level), nil, nil
	}
	l, closer, err := logging.NewFileLogger(c.Log.File, level)
	if err != nil {
		return nil, nil, err
	}
	return l, closer, nil
}

// ViewOptions translates the configuration into view options.
func (c *Config) ViewOptions() []visualization.Option {
	opts := []visualization.Option{
		visualization.WithForceConfig(c.Force),
		visualization.WithInteractionConfig(c.Interaction),
		visualization.WithRenderConfig(c.Render),
		visualization.WithSeed(c.View.Seed),
	}
	if p := c.Placer(); p != nil {
		opts = append(opts, visualization.WithPlacer(p))
	}
	return opts
}

// WriteTOML writes the configuration as a TOML document.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WriteYAML writes the configuration as a YAML document.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
