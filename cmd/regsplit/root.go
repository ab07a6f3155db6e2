package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "regsplit",
		Short: "Split scanned answer-sheet PDFs into one image per registration number",
		Long: `regsplit reads a PDF of concatenated student submissions, groups pages by the
"Registration Number" printed on each submission's first page, and writes one
stacked JPEG per student together with a JSON manifest.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSplitCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "regsplit %s\n", version)
		},
	}
}
