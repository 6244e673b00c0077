package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// RootCmd groups the commands generating documentation from the command tree.
var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate documentation for the webservices commands",
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
	RootCmd.AddCommand(MarkdownCmd)
}

// outputDir returns dir with a trailing separator, creating it if needed.
func outputDir(cmd *cobra.Command, dir string) (string, error) {
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}

	if _, err := os.Stat(dir); err != nil && os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Directory", dir, "does not exist, creating...")
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", err
		}
	}

	return dir, nil
}

func dirFlag(cmd *cobra.Command, target *string, value, usage string) {
	flags := cmd.PersistentFlags()
	flags.StringVar(target, "dir", value, usage)

	// For bash-completion
	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
