// Package config loads the dronemesh configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/dronemesh/config.toml
// (~/.config/dronemesh/config.toml when XDG_CONFIG_HOME is unset). Every key
// is optional; missing keys keep the values from [Default]. Command-line
// flags override the file.
//
//	[mesh]
//	nodes = 10
//	percentage = 40
//	weight = 5.0
//	layout = "fdp"
//	floor_mode = "pre-removal"
//
//	[render]
//	engine = "embedded"
//	dot_path = "dot"
//	formats = ["dot", "svg"]
//	output = "output"
//
//	[cache]
//	backend = "file"
//	redis_url = "redis://localhost:6379/0"
//	prefix = ""
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	max_nodes = 300
//	request_timeout = "1m"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
	"github.com/matzehuels/dronemesh/pkg/pipeline"
	"github.com/matzehuels/dronemesh/pkg/render"
)

// AppName names the configuration and cache directories.
const AppName = "dronemesh"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the decoded configuration file.
type Config struct {
	Mesh   Mesh   `toml:"mesh"`
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Mesh holds the thinning parameters.
type Mesh struct {
	Nodes      int     `toml:"nodes"`
	Percentage int     `toml:"percentage"`
	Weight     float64 `toml:"weight"`
	Layout     string  `toml:"layout"`
	FloorMode  string  `toml:"floor_mode"`
}

// Render holds the output settings.
type Render struct {
	Engine  string   `toml:"engine"`
	DotPath string   `toml:"dot_path"`
	Formats []string `toml:"formats"`
	Output  string   `toml:"output"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend  string   `toml:"backend"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"` // scopes every key, for deployments sharing one backend
	TTL      Duration `toml:"ttl"`
}

// Server configures `dronemesh serve`.
type Server struct {
	Addr           string   `toml:"addr"`
	// MaxNodes caps the node count of a single API request. Thinning a
	// complete mesh costs roughly N³, so this stays well below the CLI limit.
	MaxNodes       int      `toml:"max_nodes"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Server defaults.
const (
	DefaultMaxNodes       = 300
	DefaultRequestTimeout = time.Minute
)

// Duration is a time.Duration written as a string ("24h", "90m").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mesh: Mesh{
			Nodes:      pipeline.DefaultNodes,
			Percentage: pipeline.DefaultPercentage,
			Weight:     pipeline.DefaultWeight,
			Layout:     pipeline.DefaultLayout,
			FloorMode:  thin.FloorPreRemoval.String(),
		},
		Render: Render{
			Engine:  pipeline.DefaultEngine,
			DotPath: render.DefaultDotPath,
			Formats: pipeline.DefaultFormats(),
			Output:  "output",
		},
		Cache: Cache{
			Backend:  BackendFile,
			RedisURL: "redis://localhost:6379/0",
			TTL:      Duration{24 * time.Hour},
		},
		Server: Server{
			Addr:           ":8080",
			MaxNodes:       DefaultMaxNodes,
			RequestTimeout: Duration{DefaultRequestTimeout},
		},
	}
}

// DefaultPath returns the XDG location of the configuration file.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the file at path on top of Default. An empty path means
// DefaultPath, and a missing default file is not an error. An explicitly
// named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every value that has a fixed domain.
func (c Config) Validate() error {
	if err := errors.ValidateNodeCount(c.Mesh.Nodes); err != nil {
		return err
	}
	if err := errors.ValidatePercentage(c.Mesh.Percentage); err != nil {
		return err
	}
	if c.Mesh.Weight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "mesh.weight must be positive, got %v", c.Mesh.Weight)
	}
	if err := errors.ValidateLayout(c.Mesh.Layout); err != nil {
		return err
	}
	if _, err := thin.ParseFloorMode(c.Mesh.FloorMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "mesh.floor_mode")
	}
	if err := pipeline.ValidateEngine(c.Render.Engine); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if err := errors.ValidatePath(c.Render.Output); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be one of: file, redis, none; got %q", c.Cache.Backend)
	}
	if c.Server.MaxNodes <= 0 || c.Server.MaxNodes > errors.MaxNodes {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_nodes must be between 1 and %d, got %d", errors.MaxNodes, c.Server.MaxNodes)
	}
	if c.Server.RequestTimeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}

// PipelineOptions converts the configuration into pipeline options.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Nodes:      c.Mesh.Nodes,
		Percentage: c.Mesh.Percentage,
		Weight:     c.Mesh.Weight,
		FloorMode:  c.Mesh.FloorMode,
		Layout:     c.Mesh.Layout,
		Formats:    append([]string(nil), c.Render.Formats...),
		Engine:     c.Render.Engine,
		DotPath:    c.Render.DotPath,
	}
}
