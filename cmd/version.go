package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/prepare-release/internal/version"
)

// newVersionCmd creates the version subcommand.
func newVersionCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the prepare-release build version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var out io.Writer = os.Stdout
			describe := version.String
			if deps != nil {
				if deps.Stdout != nil {
					out = deps.Stdout
				}
				if deps.VersionString != nil {
					describe = deps.VersionString
				}
			}
			_, err := fmt.Fprintln(out, describe())
			return err
		},
	}
}
