package todocli

import (
	"github.com/spf13/cobra"

	"todotrack/internal/version"
)

func NewRootCommand() *cobra.Command {
	opts := newDefaultOptions()
	cmd := &cobra.Command{
		Use:   "todotrack [path]",
		Short: "List TODO, FIXME and other tagged comments in a project",
		Long: "todotrack scans a project for // comments that start with a configured tag\n" +
			"and lists them grouped by tag. Tags and file types come from .todo.json.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE:          runList,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Version = version.String()
	cmd.InitDefaultVersionFlag()
	if f := cmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
	}

	withOptionsContext(cmd, opts)
	bindFlags(cmd, opts)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts := optionsFrom(cmd); opts != nil {
			return opts.Prepare(cmd.ErrOrStderr())
		}
		return nil
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newWatchCommand())
	cmd.AddCommand(newOpenCommand())
	cmd.AddCommand(newSearchCommand())
	return cmd
}
