package confload

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Name    string        `yaml:"name"    env:"TEST_NAME"`
	Workers int           `yaml:"workers" env:"TEST_WORKERS"`
	Ratio   float64       `yaml:"ratio"   env:"TEST_RATIO"`
	Debug   bool          `yaml:"debug"   env:"TEST_DEBUG"`
	Wait    time.Duration `yaml:"wait"    env:"TEST_WAIT"`
	Tags    []string      `yaml:"tags"    env:"TEST_TAGS"`
	Nested  nestedConfig  `yaml:"nested"`
}

type nestedConfig struct {
	Level string `yaml:"level" env:"TEST_LEVEL"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAMLOnly(t *testing.T) {
	path := writeConfig(t, "name: from-yaml\nworkers: 3\nratio: 0.5\nnested:\n  level: debug\n")

	cfg, err := Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-yaml" || cfg.Workers != 3 || cfg.Ratio != 0.5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Nested.Level != "debug" {
		t.Errorf("nested level = %q", cfg.Nested.Level)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("TEST_NAME", "from-env")
	t.Setenv("TEST_WORKERS", "8")
	t.Setenv("TEST_RATIO", "0.75")
	t.Setenv("TEST_DEBUG", "yes")
	t.Setenv("TEST_WAIT", "250ms")
	t.Setenv("TEST_TAGS", "a, b ,c")
	t.Setenv("TEST_LEVEL", "warn")

	path := writeConfig(t, "name: from-yaml\nworkers: 3\n")

	cfg, err := Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want env value", cfg.Name)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if cfg.Ratio != 0.75 {
		t.Errorf("ratio = %f", cfg.Ratio)
	}
	if !cfg.Debug {
		t.Error("debug should parse yes as true")
	}
	if cfg.Wait != 250*time.Millisecond {
		t.Errorf("wait = %v", cfg.Wait)
	}
	if len(cfg.Tags) != 3 || cfg.Tags[1] != "b" {
		t.Errorf("tags = %v", cfg.Tags)
	}
	if cfg.Nested.Level != "warn" {
		t.Errorf("nested level = %q, want env value", cfg.Nested.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load[testConfig](filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing config file should error")
	}
}

func TestLoadWithDefaults_EnvBeatsDefaults(t *testing.T) {
	t.Setenv("TEST_WORKERS", "2")

	path := writeConfig(t, "name: svc\n")
	cfg, err := LoadWithDefaults[testConfig](path, func(c *testConfig) {
		if c.Workers == 0 {
			c.Workers = 16
		}
	})
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("workers = %d, env must win over defaults", cfg.Workers)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := GetConfigPath("default.yml"); got != "default.yml" {
		t.Errorf("path = %q", got)
	}

	t.Setenv("CONFIG_PATH", "/etc/engine.yml")
	if got := GetConfigPath("default.yml"); got != "/etc/engine.yml" {
		t.Errorf("path = %q", got)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", " Yes "} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"false", "0", "no", "", "maybe"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true", s)
		}
	}
}
