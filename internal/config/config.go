// Package config loads svgexport settings from a TOML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, command-line flags. Flags are applied by the CLI on top of the
// value returned by [Load].
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/pipeline"
	"github.com/matzehuels/svgexport/pkg/render"
)

const (
	appName  = "svgexport"
	fileName = "config.toml"

	// Environment variable names.
	EnvTimeout = "SVGEXPORT_TIMEOUT" // seconds
	EnvEngine  = "SVGEXPORT_ENGINE"
)

// Server defaults.
const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultCacheEntries = 256
	DefaultMaxBody      = 10 << 20
	DefaultTimeout      = 30 * time.Second
)

// Config holds every setting the commands read.
type Config struct {
	Engine      string        `toml:"engine"`
	Timeout     Duration      `toml:"timeout"`
	Concurrency int           `toml:"concurrency"`
	Cache       bool          `toml:"cache"`
	CacheTTL    Duration      `toml:"cache_ttl"`
	Browser     BrowserConfig `toml:"browser"`
	Server      ServerConfig  `toml:"server"`

	// Path is the file the config was read from, or "" for defaults.
	Path string `toml:"-"`
}

// BrowserConfig configures the headless browser engine.
type BrowserConfig struct {
	Args    []string `toml:"args"`
	Install bool     `toml:"install"`
}

// ServerConfig configures `svgexport serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	CacheEntries int    `toml:"cache_entries"`
	MaxBody      int64  `toml:"max_body"`
}

// Duration is a time.Duration written as a Go duration string ("30s", "1h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine:      render.EngineBrowser,
		Timeout:     Duration{DefaultTimeout},
		Concurrency: pipeline.DefaultConcurrency,
		Cache:       true,
		CacheTTL:    Duration{pipeline.DefaultTTL},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			CacheEntries: DefaultCacheEntries,
			MaxBody:      DefaultMaxBody,
		},
	}
}

// Load reads the config file and applies environment overrides.
//
// An explicit path must exist. With path == "" the default locations are
// searched and a missing file yields [Default].
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = find()
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
		cfg.Path = path
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings no command can run with.
func (c *Config) Validate() error {
	if !slices.Contains(render.Engines, c.Engine) {
		return errors.New(errors.ErrCodeInvalidEngine, "unknown engine %q (want one of %v)", c.Engine, render.Engines)
	}
	if c.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must not be negative")
	}
	if c.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Server.CacheEntries < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "server.cache_entries must be at least 1")
	}
	if c.Server.MaxBody < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body must be positive")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEngine); ok && v != "" {
		c.Engine = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil || secs < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s: want seconds, got %q", EnvTimeout, v)
		}
		c.Timeout = Duration{time.Duration(secs * float64(time.Second))}
	}
	return nil
}

// find returns the first existing default config file, or "".
func find() string {
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func searchPaths() []string {
	var paths []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, appName, fileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, fileName))
	}
	return paths
}
