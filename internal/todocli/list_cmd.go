package todocli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"todotrack/internal/core/tracker"
	"todotrack/internal/model"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "Scan the project and print tagged comments grouped by tag",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	t, opts, err := openTracker(cmd, rootArg(args))
	if err != nil {
		return err
	}
	defer t.Close()

	ex := NewExplain(opts.Explain)
	st, err := t.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	ex.Scan(st)
	ex.KV("backend", t.Store().Backend())
	ex.KV("root", t.Root())

	r, err := buildReport(t, opts.Tags)
	if err != nil {
		return err
	}
	out, err := render(opts, r)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), out)

	return ex.Emit(cmd.ErrOrStderr())
}

// buildReport snapshots the tracker, keeping only tags when given.
func buildReport(t *tracker.Tracker, tags []string) (Report, error) {
	view, err := t.Groups()
	if err != nil {
		return Report{}, err
	}
	items, err := t.List(tags)
	if err != nil {
		return Report{}, err
	}

	groups := view.Groups
	if len(tags) > 0 {
		groups = slices.DeleteFunc(slices.Clone(groups), func(g model.Group) bool {
			return !slices.Contains(tags, g.Tag)
		})
	}
	return Report{Scanning: view.Scanning, Groups: groups, Items: items}, nil
}
