package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EVENTED_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

type envSetter func(c *Config, value string) error

// envMapping maps environment variables, without the prefix, to settings.
var envMapping = map[string]envSetter{
	"NATIVE_LISTENERS": func(c *Config, v string) error {
		return setBool(&c.Environment.NativeListeners, v)
	},
	"ENGINE_VERSION": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Environment.EngineVersion = f
		return nil
	},
	"ALLOW_LEAKS": func(c *Config, v string) error {
		return setBool(&c.Environment.AllowLeaks, v)
	},
	"LOG_LEVEL": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Logging.Level = n
		return nil
	},
	"LOG_FORMAT": func(c *Config, v string) error {
		c.Logging.Format = strings.ToLower(v)
		return nil
	},
	"METRICS_ENABLED": func(c *Config, v string) error {
		return setBool(&c.Metrics.Enabled, v)
	},
	"METRICS_ADDR": func(c *Config, v string) error {
		c.Metrics.Addr = v
		return nil
	},
	"METRICS_NAMESPACE": func(c *Config, v string) error {
		c.Metrics.Namespace = v
		return nil
	},
	"SCRIPTS": func(c *Config, v string) error {
		c.Scripts.Paths = splitList(v)
		return nil
	},
	"WATCH_PATHS": func(c *Config, v string) error {
		c.Watch.Paths = splitList(v)
		return nil
	},
	"WATCH_TOPIC_PREFIX": func(c *Config, v string) error {
		c.Watch.TopicPrefix = v
		return nil
	},
}

// ApplyEnv overrides settings from EVENTED_* variables found by lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for name, set := range envMapping {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, v); err != nil {
			return fmt.Errorf("parsing %s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

// setBool accepts true/yes/on/1 and false/no/off/0.
func setBool(dst *bool, v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0", "":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
