package todocli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"todotrack/internal/config"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + config.FileName + " unless one exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(rootArg(args))
			if err != nil {
				return err
			}
			created, err := config.EnsureFile(root)
			if err != nil {
				return err
			}

			path := filepath.Join(root, config.FileName)
			if created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	}
}
