package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/dshills/evented/internal/config"
	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/gesture"
	"github.com/dshills/evented/internal/listen"
	"github.com/dshills/evented/internal/script"
	"github.com/dshills/evented/internal/term"
)

// Topics the keys session republishes terminal input on.
const (
	TopicKeyPress = "keys/press"
	TopicKeyDown  = "keys/down"
	TopicClick    = "keys/click"
	TopicPress    = "keys/pointer/press"
	TopicRelease  = "keys/pointer/release"
)

const keysHeader = "evented keys: press keys or click, ESC quits"

// maxKeyLines bounds the event history kept for drawing.
const maxKeyLines = 200

func newKeysCommand(opts *rootOptions) *cobra.Command {
	var scripts []string

	cmd := &cobra.Command{
		Use:   "keys [flags]",
		Short: "Show normalized key and mouse events in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cfg.Scripts.Paths = append(cfg.Scripts.Paths, scripts...)

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()

			// Logging would draw over the screen.
			s, err := newKeysSession(screen, cfg, logr.Discard())
			if err != nil {
				return err
			}
			defer s.close()
			return s.loop(cmd.Context())
		},
	}
	cmd.Flags().StringSliceVarP(&scripts, "script", "s", nil, "Lua script to load (repeatable)")
	return cmd
}

// keysSession feeds terminal input through a document and lists the events
// its listeners receive.
type keysSession struct {
	screen  tcell.Screen
	doc     *dom.Document
	rt      *listen.Runtime
	host    *term.Host
	engine  *script.Engine
	handles []listen.Handle
	lines   []string
}

func newKeysSession(screen tcell.Screen, cfg config.Config, log logr.Logger) (*keysSession, error) {
	doc := dom.NewDocument(cfg.Environment.Features())
	rt := listen.New(cfg.Environment.Features(),
		listen.WithLogger(log.WithName("listen")),
		listen.WithDocument(doc),
		listen.WithAllowLeaks(cfg.Environment.AllowLeaks),
	)
	s := &keysSession{
		screen: screen,
		doc:    doc,
		rt:     rt,
		host:   term.NewHost(doc, term.WithLogger(log.WithName("term"))),
		engine: script.NewEngine(rt, script.WithLogger(log.WithName("script"))),
	}

	focus := s.host.Focus()
	s.handles = append(s.handles,
		rt.On(focus, "keydown", func(evt *dom.Event) {
			s.add(fmt.Sprintf("keydown  key_code=%-3d %s", evt.KeyCode, modifiers(evt)))
			rt.Publish(TopicKeyDown, eventData(evt))
		}),
		rt.On(focus, "keypress", func(evt *dom.Event) {
			s.add(fmt.Sprintf("keypress key_code=%-3d char_code=%-3d char_or_code=%q %s",
				evt.KeyCode, evt.CharCode, evt.CharOrCode.String(), modifiers(evt)))
			rt.Publish(TopicKeyPress, eventData(evt))
		}),
		rt.On(focus, "click", func(evt *dom.Event) {
			s.add(fmt.Sprintf("click    x=%d y=%d button=%d", evt.LayerX, evt.LayerY, evt.Button))
			rt.Publish(TopicClick, eventData(evt))
		}),
		rt.OnExtension(focus, gesture.Press(rt), func(evt *dom.Event) {
			s.add(fmt.Sprintf("press    x=%d y=%d button=%d", evt.LayerX, evt.LayerY, evt.Button))
			rt.Publish(TopicPress, eventData(evt))
		}),
		rt.OnExtension(focus, gesture.Release(rt), func(evt *dom.Event) {
			s.add(fmt.Sprintf("release  x=%d y=%d button=%d", evt.LayerX, evt.LayerY, evt.Button))
			rt.Publish(TopicRelease, eventData(evt))
		}),
	)

	for _, p := range cfg.Scripts.Paths {
		if err := s.engine.DoFile(p); err != nil {
			s.close()
			return nil, fmt.Errorf("loading script %s: %w", p, err)
		}
	}
	return s, nil
}

func (s *keysSession) add(line string) {
	if len(s.lines) >= maxKeyLines {
		n := copy(s.lines, s.lines[len(s.lines)-maxKeyLines+1:])
		s.lines = s.lines[:n]
	}
	s.lines = append(s.lines, line)
}

// loop handles input until ESC is pressed, the screen is finalized or ctx
// is done.
func (s *keysSession) loop(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	s.draw()
	for {
		ev := s.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			s.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape {
				return nil
			}
			s.host.Handle(ev)
		case *tcell.EventMouse:
			s.host.Handle(ev)
		}
		s.draw()
	}
}

func (s *keysSession) draw() {
	s.screen.Clear()
	drawText(s.screen, 0, 0, keysHeader, tcell.StyleDefault.Bold(true))

	_, height := s.screen.Size()
	lines := s.lines
	if room := height - 2; room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	for i, line := range lines {
		drawText(s.screen, 0, i+2, line, tcell.StyleDefault)
	}
	s.screen.Show()
}

func (s *keysSession) close() {
	for _, h := range s.handles {
		h.Cancel()
	}
	s.doc.Unload()
	s.engine.Close()
	s.rt.Close()
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// eventData is the payload republished for an input event. Node references
// are left out.
func eventData(evt *dom.Event) map[string]any {
	return map[string]any{
		"type":         evt.Type,
		"key_code":     evt.KeyCode,
		"char_code":    evt.CharCode,
		"char_or_code": evt.CharOrCode.String(),
		"x":            evt.LayerX,
		"y":            evt.LayerY,
		"button":       evt.Button,
		"ctrl":         evt.CtrlKey,
		"alt":          evt.AltKey,
		"shift":        evt.ShiftKey,
	}
}

func modifiers(evt *dom.Event) string {
	var out string
	for _, m := range []struct {
		on   bool
		name string
	}{
		{evt.CtrlKey, "ctrl"},
		{evt.AltKey, "alt"},
		{evt.ShiftKey, "shift"},
		{evt.MetaKey, "meta"},
	} {
		if m.on {
			out += "+" + m.name
		}
	}
	return out
}
