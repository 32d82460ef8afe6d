package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Environment.Features().NativeListeners)
	assert.Equal(t, "fs", cfg.Watch.TopicPrefix)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "evented.toml", `
[environment]
native_listeners = false
engine_version = 5.6

[logging]
level = 2
format = "json"

[scripts]
paths = ["a.lua", "b.lua"]

[watch]
paths = ["./src"]
topic_prefix = "files"
ignore = ["**/.git/**"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Environment.NativeListeners)
	assert.Equal(t, 5.6, cfg.Environment.EngineVersion)
	assert.True(t, cfg.Environment.Features().LeakProne())
	assert.Equal(t, 2, cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Scripts.Paths)
	assert.Equal(t, "files", cfg.Watch.TopicPrefix)
	assert.Equal(t, []string{"**/.git/**"}, cfg.Watch.Ignore)
	// Untouched sections keep their defaults.
	assert.Equal(t, "evented", cfg.Metrics.Namespace)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "evented.yaml", `
environment:
  native_listeners: false
  engine_version: 6
metrics:
  enabled: true
  addr: "127.0.0.1:9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cfg.Environment.EngineVersion)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "evented.ini", "x=1"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("toml syntax", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.toml", "[environment\nengine_version = 1"))
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Positive(t, perr.Line)
	})

	t.Run("yaml syntax", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yml", "environment: [unclosed"))
		var perr *ParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Load(writeFile(t, "v.toml", "[logging]\nformat = \"xml\"\n"))
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative engine", func(c *Config) { c.Environment.NativeListeners = false; c.Environment.EngineVersion = -1 }, "environment.engine_version"},
		{"native legacy engine", func(c *Config) { c.Environment.EngineVersion = 5.5 }, "environment.engine_version"},
		{"negative level", func(c *Config) { c.Logging.Level = -1 }, "logging.level"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "metrics.addr"},
		{"wildcard prefix", func(c *Config) { c.Watch.TopicPrefix = "fs/*" }, "watch.topic_prefix"},
		{"empty prefix", func(c *Config) { c.Watch.TopicPrefix = "" }, "watch.topic_prefix"},
		{"empty ignore", func(c *Config) { c.Watch.Ignore = []string{""} }, "watch.ignore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EVENTED_NATIVE_LISTENERS": "no",
		"EVENTED_ENGINE_VERSION":   "5.5",
		"EVENTED_ALLOW_LEAKS":      "on",
		"EVENTED_LOG_LEVEL":        "3",
		"EVENTED_LOG_FORMAT":       "JSON",
		"EVENTED_METRICS_ENABLED":  "1",
		"EVENTED_SCRIPTS":          "a.lua, b.lua,",
		"EVENTED_WATCH_PATHS":      "/tmp",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.False(t, cfg.Environment.NativeListeners)
	assert.Equal(t, 5.5, cfg.Environment.EngineVersion)
	assert.True(t, cfg.Environment.AllowLeaks)
	assert.Equal(t, 3, cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Scripts.Paths)
	assert.Equal(t, []string{"/tmp"}, cfg.Watch.Paths)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EngineVersionImpliesLegacyHost(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantNative bool
		wantErr    bool
	}{
		{"toml version only", "evented.toml", "[environment]\nengine_version = 5.5\n", false, false},
		{"yaml version only", "evented.yaml", "environment:\n  engine_version: 5.5\n", false, false},
		{"no version", "evented.toml", "[logging]\nlevel = 1\n", true, false},
		{"explicit native conflicts", "evented.toml", "[environment]\nnative_listeners = true\nengine_version = 5.5\n", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNative, cfg.Environment.NativeListeners)
		})
	}
}

func TestLoad_EngineVersionFromEnvImpliesLegacyHost(t *testing.T) {
	t.Setenv("EVENTED_ENGINE_VERSION", "5.6")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Environment.NativeListeners)
	assert.True(t, cfg.Environment.Features().LeakProne())
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "EVENTED_LOG_LEVEL" {
			return "loud", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "EVENTED_LOG_LEVEL")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "evented.toml", "[logging]\nlevel = 1\n")
	t.Setenv("EVENTED_LOG_LEVEL", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Logging.Level)
}
