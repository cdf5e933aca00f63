package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/svgexport/pkg/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points config discovery at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv(EnvEngine, "")
	t.Setenv(EnvTimeout, "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}
	if cfg.Engine != "browser" {
		t.Errorf("Engine = %q, want browser", cfg.Engine)
	}
	if !cfg.Cache {
		t.Error("Cache should default to true")
	}
	if cfg.Timeout.Duration != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout.Duration, DefaultTimeout)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
engine = "raster"
timeout = "5s"
concurrency = 4
cache = false
cache_ttl = "1h"

[browser]
args = ["--no-sandbox"]
install = true

[server]
addr = ":9000"
cache_entries = 16
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine != "raster" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.Timeout.Duration != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout.Duration)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.Cache {
		t.Error("Cache = true, want false")
	}
	if cfg.CacheTTL.Duration != time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL.Duration)
	}
	if len(cfg.Browser.Args) != 1 || cfg.Browser.Args[0] != "--no-sandbox" || !cfg.Browser.Install {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.CacheEntries != 16 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.MaxBody != DefaultMaxBody {
		t.Errorf("Server.MaxBody = %d, want default kept", cfg.Server.MaxBody)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadDiscoversXDG(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "svgexport"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, filepath.Join(dir, "svgexport"), `engine = "raster"`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != path || cfg.Engine != "raster" {
		t.Errorf("Load() = %q %q, want %q raster", cfg.Path, cfg.Engine, path)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `engine = "browser"`)
	t.Setenv(EnvEngine, "raster")
	t.Setenv(EnvTimeout, "2.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine != "raster" {
		t.Errorf("Engine = %q, want env override", cfg.Engine)
	}
	if cfg.Timeout.Duration != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.Timeout.Duration)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		code errors.Code
	}{
		{"bad toml", `engine = `, nil, errors.ErrCodeInvalidInput},
		{"bad duration", `timeout = "soon"`, nil, errors.ErrCodeInvalidInput},
		{"unknown engine", `engine = "gpu"`, nil, errors.ErrCodeInvalidEngine},
		{"zero concurrency", `concurrency = 0`, nil, errors.ErrCodeInvalidInput},
		{"bad env timeout", ``, map[string]string{EnvTimeout: "fast"}, errors.ErrCodeInvalidInput},
		{"bad env engine", ``, map[string]string{EnvEngine: "gpu"}, errors.ErrCodeInvalidEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeConfig(t, dir, tt.body)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingExplicit(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}
