package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luma/webservices/client"
	"github.com/luma/webservices/protocol"
)

var (
	// Root URL of the server to call
	serverURL string

	// Whether to gzip the request
	compress bool

	// How long to wait for the answer
	timeout time.Duration
)

func init() {
	flags := CallCmd.Flags()

	flags.StringVarP(&serverURL, "url", "u", "http://127.0.0.1:7362", "The root URL of the server")
	flags.BoolVar(&compress, "gzip", false, "Compress the request body")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the answer")
}

var CallCmd = &cobra.Command{
	Use:   "call <method> [params...]",
	Short: "Call a method on a webservices server",
	Long: `Call a method on a webservices server over JSON-RPC and print the result.

Every parameter is a JSON value.

Usage
	webservices call examples.sum 1 2
	webservices call examples.echo '{"a": [1, 2]}'

`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := make([]protocol.Value, len(args)-1)
		for i, arg := range args[1:] {
			if err := params[i].UnmarshalJSON([]byte(arg)); err != nil {
				return fmt.Errorf("parameter %d: %w", i+1, err)
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := client.New(client.Options{URL: serverURL, Compress: compress})

		result, err := c.Call(ctx, args[0], params...)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}
