package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cherbst/devblog/config"
)

// resolved is the printable view of a loaded configuration. Secrets are
// reported as set or unset only.
type resolved struct {
	Stage    string          `yaml:"stage"`
	EnvFile  string          `yaml:"env_file"`
	Loaded   bool            `yaml:"env_file_loaded"`
	Site     siteView        `yaml:"site"`
	Settings config.Settings `yaml:"settings"`
	Runtime  config.Runtime  `yaml:"runtime"`
	Admin    bool            `yaml:"admin_enabled"`
}

type siteView struct {
	config.Site `yaml:",inline"`
	Nav         []config.NavItem `yaml:"nav"`
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := resolved{
				Stage:    cfg.Env.Stage(),
				EnvFile:  cfg.Env.Path(),
				Loaded:   cfg.Env.Loaded(),
				Site:     siteView{Site: cfg.Site, Nav: cfg.Site.Nav()},
				Settings: cfg.Settings,
				Runtime:  cfg.Runtime,
				Admin:    cfg.Runtime.AdminEnabled(),
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
