package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/config"
	"github.com/cherbst/devblog/env"
	"github.com/cherbst/devblog/views"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	root      string
	stage     string
	profile   string
	logLevel  string
	logFormat string
}

func (o *globalOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.root, "root", "C", ".", "project directory containing env/, content/ and public/")
	fs.StringVar(&o.stage, "stage", "", "environment stage (default $STAGE or prd)")
	fs.StringVarP(&o.profile, "profile", "p", string(config.ProfileServer), "configuration profile (server, static)")
	fs.StringVarP(&o.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format (text, json)")
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "devblog",
		Short: "A markdown blog served with Echo and templ",
		Long: `devblog renders markdown posts from content/blog into a website.

It can run as a server (with live drawer, admin and optional analytics)
or export every page to a static directory for hosting on Vercel or S3.

Configuration comes from env/.env.<stage> layered under the process
environment, plus an optional site.yaml for display metadata.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCmd(opts),
		newExportCmd(opts),
		newDeployCmd(opts),
		newNewCmd(opts),
		newInitCmd(),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// logger builds the slog.Logger selected by --log-level and --log-format.
func (o *globalOptions) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(o.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (supported: text, json)", o.logFormat)
	}
}

// load resolves the configuration for the selected stage and profile.
func (o *globalOptions) load() (*config.Loaded, error) {
	profile, err := config.ParseProfile(o.profile)
	if err != nil {
		return nil, err
	}
	var envOpts []env.Option
	if o.stage != "" {
		envOpts = append(envOpts, env.WithStage(o.stage))
	}
	return config.Load(o.root, profile, envOpts...)
}

// app loads the configuration and builds an App with the matching views.
// The caller must Prepare and Close it.
func (o *globalOptions) app(cmd *cobra.Command, extra ...devblog.Option) (*devblog.App, error) {
	logger, err := o.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	if !cfg.Env.Loaded() {
		logger.Warn("no environment file, using process environment only", "path", cfg.Env.Path())
	}
	opts := append([]devblog.Option{devblog.WithLogger(logger)}, extra...)
	return devblog.New(cfg, views.ForApp(cfg.Site, cfg.Settings, cfg.Runtime), opts...), nil
}
