// Package cli implements the CLI adapter for the gatekeeper.
// This package provides Cobra commands that delegate to the app layer or to
// a running server through the remote client.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli/remote"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// defaultTimeout bounds one API call. Uploads wait for every image build, so
// it is generous.
const defaultTimeout = 35 * time.Minute

// globalFlags are the persistent flags shared by the client commands.
type globalFlags struct {
	url          string
	clientConfig string
	timeout      time.Duration
}

// NewRootCmd creates the root command for the gatekeeper CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Gatekeeper - a minimal SONATA service package onboarding server",
		Long: `Gatekeeper accepts SONATA service packages (.son archives), unpacks them,
loads their descriptors, builds the container images they declare and records
the onboarded services.

Run 'gatekeeper serve' to start the server, then use the package and instance
commands to talk to it.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.url, "url", "", "Gatekeeper server URL (env GATEKEEPER_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.clientConfig, "client-config", "", "Path to the client config file")
	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 0, "Request timeout (default from client config, else 35m)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPackageCmd(flags))
	rootCmd.AddCommand(newInstanceCmd(flags))
	rootCmd.AddCommand(newConfigCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newClient builds the remote client from flags, environment and the client
// config file.
func (f *globalFlags) newClient() (*remote.Client, error) {
	cfg, err := remote.LoadClientConfig(f.clientConfig)
	if err != nil {
		return nil, err
	}

	url, err := remote.ResolveURL(f.url, f.clientConfig)
	if err != nil {
		return nil, err
	}

	timeout := f.timeout
	if timeout == 0 {
		timeout, err = cfg.TimeoutOr(defaultTimeout)
		if err != nil {
			return nil, err
		}
	}

	return remote.NewClient(url, remote.WithTimeout(timeout)), nil
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Gatekeeper %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Build Date: %s\n", BuildDate)
		},
	}
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	BuildDate = date
}
