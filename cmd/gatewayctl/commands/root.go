// Package commands implements the gatewayctl CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wadaptive/artio-go/cmd/gatewayctl/adminclient"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "gatewayctl",
	Short: "Admin CLI for the FIX/FIXP session gateway",
	Long: `gatewayctl talks to a running gatewayd's admin command stream to
list sessions and force ownership handoffs.

Use "gatewayctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:7780", "gatewayd admin command stream address")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func client() *adminclient.Client {
	return adminclient.New(addr)
}

// Exit prints an error to stderr and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
