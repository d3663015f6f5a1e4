package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/topomap/pkg/force"
	"github.com/dd0wney/topomap/pkg/visualization"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Force != force.DefaultConfig() {
		t.Error("Expected default force settings")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "topomap.yaml", `
view:
  placer: hierarchical
  frame_interval: 50ms
force:
  charge_strength: -250
  contains_distance: 60
feed:
  file: graph.json
  poll_interval: 2s
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.View.Placer != PlacerHierarchical || cfg.View.FrameInterval != 50*time.Millisecond {
		t.Errorf("Unexpected view section %+v", cfg.View)
	}
	if cfg.Force.ChargeStrength != -250 || cfg.Force.ContainsDistance != 60 {
		t.Errorf("Force overrides not applied: %+v", cfg.Force)
	}
	// untouched keys keep their defaults
	if cfg.Force.ConnectsDistance != force.DefaultConfig().ConnectsDistance {
		t.Errorf("Default lost: connects_distance=%f", cfg.Force.ConnectsDistance)
	}
	if cfg.Feed.File != "graph.json" || cfg.Feed.PollInterval != 2*time.Second {
		t.Errorf("Unexpected feed section %+v", cfg.Feed)
	}
	if _, ok := cfg.Placer().(*visualization.HierarchicalPlacer); !ok {
		t.Errorf("Expected a hierarchical placer, got %T", cfg.Placer())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "topomap.toml", `
[view]
placer = "circular"

[interaction]
max_scale = 8.0

[render]
label_min_scale = 0.3
legend = false

[metrics]
address = ":9464"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Interaction.MaxScale != 8 || cfg.Interaction.MinScale != 0.1 {
		t.Errorf("Unexpected interaction section %+v", cfg.Interaction)
	}
	if cfg.Render.LabelMinScale != 0.3 || cfg.Render.Legend {
		t.Errorf("Unexpected render section %+v", cfg.Render)
	}
	if cfg.Metrics.Address != ":9464" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Unexpected metrics section %+v", cfg.Metrics)
	}
	if _, ok := cfg.Placer().(*visualization.CircularPlacer); !ok {
		t.Errorf("Expected a circular placer, got %T", cfg.Placer())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
		want     string
	}{
		{"unsupported extension", "topomap.ini", "a=b", "unsupported config format"},
		{"unknown yaml key", "topomap.yaml", "force:\n  gravity: 3\n", "gravity"},
		{"unknown toml key", "topomap.toml", "[force]\ngravity = 3\n", "gravity"},
		{"malformed yaml", "topomap.yaml", "force: [", "parse config"},
		{"invalid value", "topomap.yaml", "force:\n  theta: -1\n", "theta"},
		{"bad placer", "topomap.toml", "[view]\nplacer = \"random\"\n", "view.placer"},
		{"inverted scale range", "topomap.yaml", "interaction:\n  min_scale: 5\n", "min_scale"},
		{"bad metrics path", "topomap.yaml", "metrics:\n  address: ':9464'\n  path: metrics\n", "metrics.path"},
		{"empty metrics path", "topomap.yaml", "metrics:\n  address: ':9464'\n  path: ''\n", "required"},
		{"inverted spring lengths", "topomap.yaml", "force:\n  contains_distance: 300\n", "contains_distance"},
		{"slow frame clock", "topomap.yaml", "view:\n  frame_interval: 5s\n", "view.frame_interval"},
		{"long labels", "topomap.toml", "[render]\nlabel_max_chars = 1000\n", "label_max_chars"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.contents))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q does not mention %q", err, tt.want)
			}
		})
	}

	_, err := Load("topomap.ini")
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
	_, err = Load(writeFile(t, "x.ini", ""))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.View.Placer = "random"
	cfg.Force.Theta = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected a *ValidationError, got %T: %v", err, err)
	}
	if len(invalid.Problems) != 3 {
		t.Errorf("Expected 3 problems, got %d: %v", len(invalid.Problems), invalid.Problems)
	}
	for _, want := range []string{"view.placer", "theta", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error %q does not mention %s", err, want)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9000")
	path := writeFile(t, "topomap.yaml", "log:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env log level to win, got %q", cfg.Log.Level)
	}
	if cfg.Metrics.Address != "127.0.0.1:9000" {
		t.Errorf("Expected env metrics address, got %q", cfg.Metrics.Address)
	}

	t.Setenv(EnvLogLevel, "verbose")
	if _, err := Load(path); err == nil {
		t.Error("Expected an invalid env log level to fail validation")
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.View.Placer = PlacerCircular
	cfg.Force.ChargeStrength = -123

	var tomlBuf bytes.Buffer
	if err := cfg.WriteTOML(&tomlBuf); err != nil {
		t.Fatalf("WriteTOML failed: %v", err)
	}
	loaded, err := Load(writeFile(t, "out.toml", tomlBuf.String()))
	if err != nil {
		t.Fatalf("Reloading TOML failed: %v", err)
	}
	if loaded.View != cfg.View || loaded.Force != cfg.Force {
		t.Error("TOML round trip changed the configuration")
	}

	var yamlBuf bytes.Buffer
	if err := cfg.WriteYAML(&yamlBuf); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	loaded, err = Load(writeFile(t, "out.yaml", yamlBuf.String()))
	if err != nil {
		t.Fatalf("Reloading YAML failed: %v", err)
	}
	if loaded.View != cfg.View || loaded.Force != cfg.Force {
		t.Error("YAML round trip changed the configuration")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "error"
	cfg.Log.File = filepath.Join(t.TempDir(), "topomap.log")
	logger, closer, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
	defer closer.Close()
	logger.Info("dropped")
	logger.Error("kept")

	data, err := os.ReadFile(cfg.Log.File)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), "kept") {
		t.Errorf("Unexpected log contents %q", data)
	}
}

func TestViewOptions(t *testing.T) {
	cfg := Default()
	if got := len(cfg.ViewOptions()); got != 4 {
		t.Errorf("Expected 4 options for the spiral placer, got %d", got)
	}
	cfg.View.Placer = PlacerHierarchical
	if got := len(cfg.ViewOptions()); got != 5 {
		t.Errorf("Expected 5 options with a placer, got %d", got)
	}
}
