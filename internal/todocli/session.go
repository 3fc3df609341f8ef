package todocli

import (
	"fmt"

	"github.com/spf13/cobra"

	"todotrack/internal/core/tracker"
)

func rootArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}

// openTracker builds a tracker for root from the command's options. Notices
// are printed to stderr.
func openTracker(cmd *cobra.Command, root string) (*tracker.Tracker, *Options, error) {
	opts := optionsFrom(cmd)
	if opts == nil {
		return nil, nil, fmt.Errorf("options missing")
	}
	log := opts.Logger()

	t, err := tracker.New(root, tracker.Options{
		Backend:          opts.Backend,
		Workers:          opts.Workers,
		ExcludeGlobs:     opts.ExcludeGlobs,
		RespectGitignore: opts.Gitignore,
		Bootstrap:        !opts.NoInit,
		Logger:           log,
		Notifier:         stderrNotifier{cmd: cmd},
	})
	if err != nil {
		return nil, nil, err
	}
	return t, opts, nil
}

type stderrNotifier struct {
	cmd *cobra.Command
}

func (n stderrNotifier) Info(msg string) {
	_, _ = fmt.Fprintln(n.cmd.ErrOrStderr(), msg)
}

func (n stderrNotifier) Error(msg string) {
	_, _ = fmt.Fprintln(n.cmd.ErrOrStderr(), "error: "+msg)
}
