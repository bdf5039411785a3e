package cli

import (
	"homebroker/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	BaseURL    string

	cfg *config.Config
}

// loadConfig loads the configuration once. --base-url overrides the
// configured notifications.base_url.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.cfg == nil {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	if o.BaseURL != "" {
		o.cfg.Notifications.BaseURL = o.BaseURL
	}
	return o.cfg, nil
}

// NewRootCommand creates the root command for notifyctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "notifyctl",
		Short: "Publish and watch homebroker notifications",
		Long: `notifyctl talks to a running homebroker server.

It reads the same configuration as the server (YAML file plus HOMEBROKER_*
environment variables), so the publish secret and JWT secret are shared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "server base URL (overrides notifications.base_url)")

	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
