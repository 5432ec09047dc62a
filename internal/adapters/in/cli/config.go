package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli/remote"
	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/styles"
)

// newConfigCmd creates the client configuration commands.
func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client configuration",
	}

	var timeout string
	setCmd := &cobra.Command{
		Use:   "set-url <url>",
		Short: "Save the default server URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := remote.LoadClientConfig(flags.clientConfig)
			if err != nil {
				return err
			}
			cfg.URL = args[0]
			if timeout != "" {
				cfg.Timeout = timeout
				if _, err := cfg.TimeoutOr(0); err != nil {
					return err
				}
			}
			if err := remote.SaveClientConfig(flags.clientConfig, cfg); err != nil {
				return err
			}
			return cliWriteLine(cmd.OutOrStdout(), styles.RenderSuccess("server URL set to "+cfg.URL))
		},
	}
	setCmd.Flags().StringVar(&timeout, "default-timeout", "", "Default request timeout, e.g. 40m")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check that the configured server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			return cliWriteLine(cmd.OutOrStdout(), styles.RenderSuccess(client.BaseURL()+" is healthy"))
		},
	})

	return cmd
}
