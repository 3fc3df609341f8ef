package todocli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todotrack/internal/model"
)

func newOpenCommand() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "open <file> <line>",
		Short: "Open a file at a line in $EDITOR, or print file:line:col",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid line %q: %w", args[1], err)
			}

			t, opts, err := openTracker(cmd, root)
			if err != nil {
				return err
			}
			defer t.Close()

			loc, err := t.Locate(args[0], line)
			if err != nil {
				return err
			}

			editor := strings.Fields(os.Getenv("EDITOR"))
			if len(editor) == 0 || opts.VimLines || opts.Jsonl {
				return printLocation(cmd, opts, loc)
			}

			argv := append(editor[1:], fmt.Sprintf("+%d", loc.Line0+1), loc.Path)
			c := exec.CommandContext(cmd.Context(), editor[0], argv...)
			c.Stdin = os.Stdin
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				return fmt.Errorf("run %s: %w", editor[0], err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "project root that relative paths are resolved against")
	return cmd
}

func printLocation(cmd *cobra.Command, opts *Options, loc model.Location) error {
	if opts.Jsonl {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), RenderJSONLValue(loc))
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d\n", loc.Path, loc.Line0+1, loc.Col+1)
	return nil
}
