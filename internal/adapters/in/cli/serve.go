package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/gatekeeper/internal/app"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gatekeeper server",
		Long: `Start the gatekeeper REST API. Configuration is read from gatekeeper.toml
(/etc/gatekeeper, $XDG_CONFIG_HOME/gatekeeper or the current directory) and from
GATEKEEPER_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}
