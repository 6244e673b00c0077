package gen

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	markdownDir string
)

// MarkdownCmd writes one markdown page per command, linked together.
var MarkdownCmd = &cobra.Command{
	Use:   "markdown",
	Short: "Generate markdown reference pages for the webservices commands",

	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := outputDir(cmd, markdownDir)
		if err != nil {
			return err
		}

		cmd.Root().DisableAutoGenTag = true

		fmt.Fprintln(cmd.OutOrStdout(), "Generating webservices markdown pages in", dir, "...")

		if err := doc.GenMarkdownTree(cmd.Root(), dir); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Done.")

		return nil
	},
}

func init() {
	dirFlag(MarkdownCmd, &markdownDir, "docs/", "the directory to write the markdown pages.")
}
