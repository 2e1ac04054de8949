package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/autobrr/lndup/pkg/hashpool"
)

// HasherCommand serves hash requests on stdin/stdout for an external driver.
func HasherCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "hasher",
		Short:  "Hash files named on stdin, one per line",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hashpool.Serve(afero.NewOsFs(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
