package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/components"
)

// newPackageCmd creates the package command group.
func newPackageCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "package",
		Aliases: []string{"packages", "pkg"},
		Short:   "Upload and inspect service packages",
	}

	cmd.AddCommand(newPackageUploadCmd(flags))
	cmd.AddCommand(newPackageListCmd(flags))
	cmd.AddCommand(newPackageShowCmd(flags))
	cmd.AddCommand(newPackageHistoryCmd(flags))

	return cmd
}

func newPackageUploadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.son>...",
		Short: "Upload service packages and wait for their onboarding",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}

			var failed int
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					return err
				}

				var resp *dto.UploadResponse
				err := components.RunWithSpinner(cmd.Context(), cmd.OutOrStdout(), "Onboarding "+path, func(ctx context.Context) error {
					var uploadErr error
					resp, uploadErr = client.UploadPackage(ctx, path)
					return uploadErr
				})
				if err != nil {
					failed++
					if err := cliWriteLine(cmd.ErrOrStderr(), uploadErrorLine(path, err)); err != nil {
						return err
					}
					continue
				}
				if err := renderUpload(cmd.OutOrStdout(), path, resp); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
}

func uploadErrorLine(path string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return cliRenderError(fmt.Sprintf("%s: timed out waiting for onboarding; check 'gatekeeper package history'", path))
	}
	return cliRenderError(fmt.Sprintf("%s: %v", path, err))
}

func newPackageListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List onboarded service UUIDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			ids, err := client.ListPackages(cmd.Context())
			if err != nil {
				return err
			}
			return renderUUIDList(cmd.OutOrStdout(), "Services", ids, "No services onboarded yet.")
		},
	}
}

func newPackageShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <service-uuid>",
		Short: "Show the onboarding record of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			detail, err := client.GetPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderPackageDetail(cmd.OutOrStdout(), detail)
		},
	}
}

func newPackageHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show every upload with its last onboarding state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.newClient()
			if err != nil {
				return err
			}
			records, err := client.PackageHistory(cmd.Context())
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), records)
		},
	}
}
