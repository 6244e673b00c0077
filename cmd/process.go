package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/luma/webservices/internal/env"
)

var (
	// Content encoding of the request read from stdin
	encoding string
)

func init() {
	flags := ProcessCmd.Flags()

	flags.StringVarP(&encoding, "encoding", "e", "", "Content encoding of the request (gzip, deflate)")
}

var ProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single request read from stdin",
	Long: `Process a single JSON-RPC request read from stdin, without starting a
listener, and write the reply headers and body to stdout.

Usage
	echo '{"method":"examples.sum","params":[1,2],"id":1}' | webservices process

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		log, err := env.MakeLogger(conf.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		s, err := makeServer(conf, log)
		if err != nil {
			return err
		}

		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}

		reply, err := s.ProcessRequest(ctx, body, encoding)
		if err != nil {
			return err
		}

		return reply.WriteRaw(cmd.OutOrStdout())
	},
}
