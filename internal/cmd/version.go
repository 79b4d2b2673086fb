package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"DirectoryHasher/internal/version"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dirhash %s\n", version.GetFullVersion())
		},
	}
}
