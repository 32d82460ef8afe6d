package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/evented/internal/config"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   int
	logFormat  string
}

func (o *rootOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "Path to configuration file (.toml or .yaml)")
	fs.IntVar(&o.logLevel, "log-level", -1, "Log verbosity; overrides the configuration when set")
	fs.StringVar(&o.logFormat, "log-format", "", `Log format, "text" or "json"; overrides the configuration when set`)
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel >= 0 {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "evented",
		Short:         "event subscription and dispatch host",
		Long:          "evented hosts a document and a pub/sub hub, runs Lua listeners against them and publishes filesystem changes as topics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(opts),
		newKeysCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// newLogger builds the process logger for the logging settings.
func newLogger(cfg config.Logging, w io.Writer) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	fopts := funcr.Options{
		LogTimestamp: true,
		Verbosity:    cfg.Level,
	}
	write := func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}
	if cfg.Format == "json" {
		return funcr.NewJSON(func(obj string) { fmt.Fprintln(w, obj) }, fopts)
	}
	return funcr.New(write, fopts)
}
