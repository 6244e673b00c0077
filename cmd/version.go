package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/webservices/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the webservices server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), meta.GetInfo())
	},
}
