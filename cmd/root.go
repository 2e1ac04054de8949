package cmd

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/lndup/pkg/config"
	"github.com/autobrr/lndup/pkg/fsys"
	"github.com/autobrr/lndup/pkg/logger"
)

func RootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "lndup PATH...",
		Short: "Hardlink duplicate files",
		Long: `Finds byte-identical files below the given paths and replaces the duplicates
with hard links to a single copy. Files are only linked within one filesystem,
empty files are ignored.

The names "hasher" and "version" are reserved for subcommands, pass such a
directory as ./hasher or by absolute path.`,
		Example: `  lndup /srv/backups
  lndup --dry-run /data/a /data/b
  lndup --filter 'Size > 1048576' --exclude '/\.git$' /home`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.RegisterFlags(command.Flags())

	command.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		if err := logger.Init(logger.Config{
			Verbosity: opts.Verbosity,
			File:      opts.LogFile,
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
		}); err != nil {
			return err
		}

		_, err = runDedup(args, opts, fsys.NewOsFs())
		return err
	}

	return command
}
