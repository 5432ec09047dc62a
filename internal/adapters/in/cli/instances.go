package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/styles"
)

// newInstanceCmd creates the instance command group.
func newInstanceCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instance",
		Aliases: []string{"instances"},
		Short:   "Request and list service instances",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <service-uuid>",
		Short: "Request an instance of an onboarded service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			id, err := client.Instantiate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cliWriteLine(cmd.OutOrStdout(), styles.RenderSuccess("instance "+id+" requested"))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List service instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			ids, err := client.ListInstances(cmd.Context())
			if err != nil {
				return err
			}
			return renderUUIDList(cmd.OutOrStdout(), "Instances", ids, "No instances.")
		},
	})

	return cmd
}
