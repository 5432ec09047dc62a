package main

import (
	"os"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version string
	commit  string
	date    string
)

func main() {
	if version != "" {
		cli.SetVersionInfo(version, commit, date)
	}
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
