package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/webservices/cmd/gen"
)

var RootCmd = &cobra.Command{
	Use:   "webservices",
	Short: "RPC web services server",
	Long: `Serves registered functions to RPC clients over HTTP.

Requests are posted to /webservices/execute/<protocol>, the only protocol
currently served is jsonrpc.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(StartCmd)
	RootCmd.AddCommand(CallCmd)
	RootCmd.AddCommand(ProcessCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

// Execute runs the root command, exiting with a non zero status on failure.
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
