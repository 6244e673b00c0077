package gen

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/webservices/internal/meta"
)

var (
	manDir string
)

var ManPagesCmd = &cobra.Command{
	Use:   "man",
	Short: "Generate man pages for the webservices server",
	Long: `Generates up-to-date man pages of every webservices command. By
default, the man page files are written to the "man" directory under the
current directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDir(cmd, manDir)
		if err != nil {
			return err
		}

		header := &doc.GenManHeader{
			Section: "1",
			Manual:  "webservices Manual",
			Source:  meta.GetInfo().String(),
		}

		cmd.Root().DisableAutoGenTag = true

		fmt.Fprintln(cmd.OutOrStdout(), "Generating webservices man pages in", dir, "...")

		if err := doc.GenManTree(cmd.Root(), header, dir); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Done.")

		return nil
	},
}

func init() {
	dirFlag(ManPagesCmd, &manDir, "man/", "the directory to write the man pages.")
}
