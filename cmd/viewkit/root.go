package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	viewkit "github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
)

// options holds the persistent flags shared by every sub command.
type options struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "viewkit",
		Short: "Resolve and render composed view templates",
		Long: `viewkit resolves template names against module directories, renders
view trees through pongo2, html/template and Markdown engines, and serves
them for development.

Configuration is read from --config (a view.yaml as written by "viewkit
init"). Without it every command runs with the defaults and no modules.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to view.yaml")

	root.AddCommand(
		newResolveCommand(opts),
		newRenderCommand(opts),
		newInitCommand(),
		newServeCommand(opts),
		newCheckCommand(opts),
	)
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.configPath)
}

// newKit builds a Kit from the configuration, logging to the command's
// error stream.
func (o *options) newKit(cmd *cobra.Command, extra ...viewkit.Option) (*viewkit.Kit, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	kitOpts := []viewkit.Option{
		viewkit.WithConfig(cfg),
		viewkit.WithLogger(cfg.Logger(cmd.ErrOrStderr())),
	}
	return viewkit.New(append(kitOpts, extra...)...)
}

// newMetricsKit is newKit with a private metrics registry.
func (o *options) newMetricsKit(cmd *cobra.Command) (*viewkit.Kit, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	kit, err := o.newKit(cmd, viewkit.WithMetrics(reg))
	if err != nil {
		return nil, nil, err
	}
	return kit, reg, nil
}
