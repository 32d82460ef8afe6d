package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/evented/internal/config"
	"github.com/dshills/evented/internal/dom"
	"github.com/dshills/evented/internal/listen"
	"github.com/dshills/evented/internal/metrics"
	"github.com/dshills/evented/internal/script"
	"github.com/dshills/evented/internal/watch"
)

// Lifecycle topics published by the host.
const (
	TopicStart = "evented/start"
	TopicStop  = "evented/stop"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand(opts *rootOptions) *cobra.Command {
	var scripts, paths []string

	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Run the host until interrupted",
		Long:  "Run loads Lua scripts, watches paths and publishes every change to the hub until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cfg.Scripts.Paths = append(cfg.Scripts.Paths, scripts...)
			cfg.Watch.Paths = append(cfg.Watch.Paths, paths...)
			return serve(cmd.Context(), cfg, newLogger(cfg.Logging, cmd.ErrOrStderr()))
		},
	}
	cmd.Flags().StringSliceVarP(&scripts, "script", "s", nil, "Lua script to load (repeatable)")
	cmd.Flags().StringSliceVarP(&paths, "watch", "w", nil, "Path to watch (repeatable)")
	return cmd
}

// host is the set of components a running process owns.
type host struct {
	log     logr.Logger
	doc     *dom.Document
	rt      *listen.Runtime
	pub     *guardedPublisher
	engine  *script.Engine
	watcher *watch.Watcher
	metrics *http.Server
}

func newHost(cfg config.Config, log logr.Logger) (*host, error) {
	h := &host{
		log: log,
		doc: dom.NewDocument(cfg.Environment.Features()),
	}

	ropts := []listen.Option{
		listen.WithLogger(log.WithName("listen")),
		listen.WithDocument(h.doc),
		listen.WithAllowLeaks(cfg.Environment.AllowLeaks),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec, err := metrics.NewRecorder(reg, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		ropts = append(ropts, listen.WithRecorder(rec))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		h.metrics = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	h.rt = listen.New(cfg.Environment.Features(), ropts...)
	listen.SetDefault(h.rt)
	h.pub = &guardedPublisher{rt: h.rt, log: log}
	h.engine = script.NewEngine(h.rt, script.WithLogger(log.WithName("script")))

	w, err := watch.New(h.pub,
		watch.WithPrefix(cfg.Watch.TopicPrefix),
		watch.WithIgnore(cfg.Watch.Ignore...),
		watch.WithLogger(log.WithName("watch")),
	)
	if err != nil {
		h.close()
		return nil, err
	}
	h.watcher = w

	for _, p := range cfg.Scripts.Paths {
		if err := h.engine.DoFile(p); err != nil {
			h.close()
			return nil, fmt.Errorf("loading script %s: %w", p, err)
		}
		log.V(1).Info("loaded script", "path", p)
	}
	for _, p := range cfg.Watch.Paths {
		if err := h.watcher.Add(p); err != nil {
			h.close()
			return nil, err
		}
	}
	return h, nil
}

// guardedPublisher publishes to the runtime and logs a failing listener
// instead of letting it unwind the caller's loop.
type guardedPublisher struct {
	rt       *listen.Runtime
	log      logr.Logger
	failures int
}

// Publish implements watch.Publisher.
func (p *guardedPublisher) Publish(topic string, data any) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			p.failures++
			p.log.Error(err, "listener failed", "topic", topic)
		}
	}()
	p.rt.Publish(topic, data)
}

// close unloads the document and releases every component.
func (h *host) close() {
	if h.watcher != nil {
		if err := h.watcher.Close(); err != nil {
			h.log.Error(err, "closing watcher")
		}
	}
	h.doc.Unload()
	if h.engine != nil {
		h.engine.Close()
	}
	if h.rt != nil {
		h.rt.Close()
	}
	if h.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.metrics.Shutdown(ctx); err != nil {
			h.log.Error(err, "stopping metrics server")
		}
	}
}

// serve runs the host until ctx is done. Every publish, and so every Lua
// listener, runs on the calling goroutine.
func serve(ctx context.Context, cfg config.Config, log logr.Logger) error {
	h, err := newHost(cfg, log)
	if err != nil {
		return err
	}
	defer h.close()

	if h.metrics != nil {
		go func() {
			if err := h.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "metrics server")
			}
		}()
		log.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	log.Info("started",
		"native_listeners", cfg.Environment.NativeListeners,
		"engine_version", cfg.Environment.EngineVersion,
		"teardown", h.rt.Teardown() != nil,
		"scripts", len(cfg.Scripts.Paths),
		"watched", h.watcher.Paths(),
	)
	h.pub.Publish(TopicStart, nil)

	err = h.watcher.Run(ctx)

	h.pub.Publish(TopicStop, nil)
	stats := h.rt.Stats()
	log.Info("stopped",
		"subscribed", stats.Subscribed,
		"cancelled", stats.Cancelled,
		"published", stats.Published,
		"teardowns", stats.Teardowns,
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
