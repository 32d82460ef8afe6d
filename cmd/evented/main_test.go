package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/evented/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out, &errOut))
	assert.Contains(t, out.String(), "evented "+version)
	assert.Contains(t, out.String(), "Commit: "+commit)
}

func TestRun_UnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"bogus"}, &out, &errOut))
}

func TestRootOptions_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "evented.toml", `
[logging]
level = 1
format = "text"
`)

	opts := &rootOptions{configPath: path, logLevel: 3, logFormat: "json"}
	cfg, err := opts.load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	opts = &rootOptions{configPath: path, logLevel: -1}
	cfg, err = opts.load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Logging.Level)
}

func TestRootOptions_InvalidOverride(t *testing.T) {
	opts := &rootOptions{logLevel: -1, logFormat: "xml"}
	_, err := opts.load()
	assert.ErrorIs(t, err, config.ErrValidationFailed)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.Logging{Level: 1, Format: "json"}, &buf)
	log.Info("hello", "k", 1)
	log.V(2).Info("hidden")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	log = newLogger(config.Logging{Format: "text"}, &buf)
	log.Info("hello")
	assert.Contains(t, buf.String(), `"msg"="hello"`)
}

func TestNewHost_LoadsScriptsAndWatches(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "start.lua", `
		local ev = require("evented")
		started = false
		ev.subscribe("evented/start", function() started = true end)
	`)
	watched := filepath.Join(dir, "watched")
	require.NoError(t, os.Mkdir(watched, 0o755))

	cfg := config.Default()
	cfg.Scripts.Paths = []string{script}
	cfg.Watch.Paths = []string{watched}
	cfg.Metrics.Enabled = true

	h, err := newHost(cfg, testr.New(t))
	require.NoError(t, err)
	defer h.close()

	assert.Equal(t, 1, h.engine.Subscriptions())
	assert.Equal(t, 1, h.watcher.Paths())
	assert.NotNil(t, h.metrics)
	assert.Nil(t, h.rt.Teardown())

	h.rt.Publish(TopicStart, nil)
	assert.Equal(t, lua.LTrue, h.engine.L.GetGlobal("started"))
}

func TestNewHost_FailingListenerDoesNotStopPublishing(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "flaky.lua", `
		local ev = require("evented")
		seen = 0
		ev.subscribe("fs/write", function(evt)
			seen = seen + 1
			if evt.data == "bad" then error("boom") end
		end)
	`)

	cfg := config.Default()
	cfg.Scripts.Paths = []string{script}
	h, err := newHost(cfg, testr.New(t))
	require.NoError(t, err)
	defer h.close()

	assert.NotPanics(t, func() {
		h.pub.Publish("fs/write", "bad")
		h.pub.Publish("fs/write", "good")
	})
	assert.Equal(t, lua.LNumber(2), h.engine.L.GetGlobal("seen"))
	assert.Equal(t, 1, h.pub.failures)
}

func TestNewHost_ScriptError(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.lua", `this is not lua`)

	cfg := config.Default()
	cfg.Scripts.Paths = []string{script}
	_, err := newHost(cfg, testr.New(t))
	assert.ErrorContains(t, err, "bad.lua")
}

func TestNewHost_LeakProneEngineTearsDownOnClose(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.Environment{EngineVersion: 5.5}

	h, err := newHost(cfg, testr.New(t))
	require.NoError(t, err)
	require.NotNil(t, h.rt.Teardown())

	h.close()
	assert.Equal(t, uint64(1), h.rt.Stats().Teardowns)
}

func TestServe_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serve(ctx, config.Default(), testr.New(t)))
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 25)
	t.Cleanup(screen.Fini)
	return screen
}

func TestKeysSession_ShowsNormalizedEvents(t *testing.T) {
	for _, env := range []config.Environment{
		{NativeListeners: true},
		{EngineVersion: 6},
	} {
		screen := newSimScreen(t)
		dir := t.TempDir()
		script := writeFile(t, dir, "keys.lua", `
			local ev = require("evented")
			pressed = ""
			ev.subscribe("keys/press", function(evt) pressed = pressed .. evt.data.char_or_code end)
		`)

		cfg := config.Default()
		cfg.Environment = env
		cfg.Scripts.Paths = []string{script}

		s, err := newKeysSession(screen, cfg, testr.New(t))
		require.NoError(t, err)

		screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
		screen.InjectKey(tcell.KeyEnter, '\r', tcell.ModNone)
		screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
		require.NoError(t, s.loop(context.Background()))

		require.Len(t, s.lines, 4, "environment %+v", env)
		assert.Contains(t, s.lines[1], `char_or_code="a"`)
		assert.Contains(t, s.lines[3], `char_or_code="13"`)
		assert.Equal(t, lua.LString("a13"), s.engine.L.GetGlobal("pressed"))
		s.close()
	}
}

func TestKeysSession_PointerGestures(t *testing.T) {
	screen := newSimScreen(t)
	s, err := newKeysSession(screen, config.Default(), testr.New(t))
	require.NoError(t, err)
	defer s.close()

	screen.InjectMouse(4, 2, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(4, 2, tcell.ButtonNone, tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	require.NoError(t, s.loop(context.Background()))

	require.Len(t, s.lines, 3)
	assert.Contains(t, s.lines[0], "press    x=4 y=2 button=1")
	assert.Contains(t, s.lines[1], "release  x=4 y=2")
	assert.Contains(t, s.lines[2], "click    x=4 y=2 button=1")
}

func TestKeysSession_HistoryIsBounded(t *testing.T) {
	s, err := newKeysSession(newSimScreen(t), config.Default(), testr.New(t))
	require.NoError(t, err)
	defer s.close()

	for i := 0; i < maxKeyLines+50; i++ {
		s.add(fmt.Sprintf("line %d", i))
	}
	require.Len(t, s.lines, maxKeyLines)
	assert.Equal(t, "line 50", s.lines[0])
	assert.Equal(t, fmt.Sprintf("line %d", maxKeyLines+49), s.lines[maxKeyLines-1])
}

func TestKeysSession_StopsOnCancel(t *testing.T) {
	s, err := newKeysSession(newSimScreen(t), config.Default(), testr.New(t))
	require.NoError(t, err)
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.loop(ctx))
}
