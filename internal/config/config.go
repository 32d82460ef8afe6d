package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/topic"
)

// Config is the complete evented configuration.
type Config struct {
	Environment Environment `toml:"environment" yaml:"environment"`
	Logging     Logging     `toml:"logging" yaml:"logging"`
	Metrics     Metrics     `toml:"metrics" yaml:"metrics"`
	Scripts     Scripts     `toml:"scripts" yaml:"scripts"`
	Watch       Watch       `toml:"watch" yaml:"watch"`
}

// Environment describes the simulated host. When a loaded configuration
// leaves native_listeners unset, a positive engine_version selects a legacy
// host.
type Environment struct {
	NativeListeners bool    `toml:"native_listeners" yaml:"native_listeners"`
	EngineVersion   float64 `toml:"engine_version" yaml:"engine_version"`
	AllowLeaks      bool    `toml:"allow_leaks" yaml:"allow_leaks"`
}

// Features returns the host features for a document.
func (e Environment) Features() dom.Features {
	return dom.Features{
		NativeListeners: e.NativeListeners,
		EngineVersion:   e.EngineVersion,
	}
}

// Logging configures the logger.
type Logging struct {
	// Level is the logr verbosity; 0 logs only info messages.
	Level int `toml:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace"`
	Addr      string `toml:"addr" yaml:"addr"`
}

// Scripts lists Lua scripts to load.
type Scripts struct {
	Paths []string `toml:"paths" yaml:"paths"`
}

// Watch configures the filesystem watcher.
type Watch struct {
	Paths       []string `toml:"paths" yaml:"paths"`
	TopicPrefix string   `toml:"topic_prefix" yaml:"topic_prefix"`
	Ignore      []string `toml:"ignore" yaml:"ignore"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment: Environment{NativeListeners: true},
		Logging:     Logging{Format: "text"},
		Metrics: Metrics{
			Namespace: "evented",
			Addr:      ":9090",
		},
		Watch: Watch{TopicPrefix: "fs"},
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	var explicit bool
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := Decode(path, data, &cfg); err != nil {
			return cfg, err
		}
		if explicit, err = nativeListenersSet(path, data); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if _, ok := os.LookupEnv(EnvPrefix + "NATIVE_LISTENERS"); ok {
		explicit = true
	}
	if !explicit && cfg.Environment.EngineVersion > 0 {
		cfg.Environment.NativeListeners = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data into cfg using the decoder for path's extension.
func Decode(path string, data []byte, cfg *Config) error {
	return decode(path, data, cfg)
}

// nativeListenersSet reports whether the file sets native_listeners.
func nativeListenersSet(path string, data []byte) (bool, error) {
	var probe struct {
		Environment struct {
			NativeListeners *bool `toml:"native_listeners" yaml:"native_listeners"`
		} `toml:"environment" yaml:"environment"`
	}
	if err := decode(path, data, &probe); err != nil {
		return false, err
	}
	return probe.Environment.NativeListeners != nil, nil
}

func decode(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, v); err != nil {
			perr := &ParseError{Path: path, Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, perr.Column = derr.Position()
			}
			return perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Environment.EngineVersion < 0 {
		invalid("environment.engine_version", "must not be negative", c.Environment.EngineVersion)
	}
	if c.Environment.NativeListeners && c.Environment.EngineVersion > 0 {
		invalid("environment.engine_version", "legacy engines have no native listeners", c.Environment.EngineVersion)
	}
	if c.Logging.Level < 0 {
		invalid("logging.level", "must not be negative", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		invalid("logging.format", `must be "text" or "json"`, c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		invalid("metrics.addr", "required when metrics are enabled", c.Metrics.Addr)
	}
	if !topic.Topic(c.Watch.TopicPrefix).IsValid() || topic.Topic(c.Watch.TopicPrefix).IsWildcard() {
		invalid("watch.topic_prefix", "must be a topic without wildcards", c.Watch.TopicPrefix)
	}
	for _, p := range c.Watch.Ignore {
		if p == "" {
			invalid("watch.ignore", "patterns must not be empty", p)
		}
	}
	return errors.Join(errs...)
}
