package todocli

import (
	"fmt"

	"github.com/spf13/cobra"

	"todotrack/internal/model"
)

func newSearchCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text> [path]",
		Short: "Scan the project and print tagged comments whose text matches",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, opts, err := openTracker(cmd, rootArg(args[1:]))
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
			ex.KV("query", args[0])

			items, err := t.Search(args[0], limit)
			if err != nil {
				return err
			}
			ex.KV("hits", len(items))

			out, err := render(opts, Report{Groups: groupsOf(items), Items: items})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return ex.Emit(cmd.ErrOrStderr())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of hits (0: no limit)")
	return cmd
}

// groupsOf counts items per tag in first-seen order.
func groupsOf(items []model.Item) []model.Group {
	var out []model.Group
	idx := map[string]int{}
	for _, item := range items {
		i, ok := idx[item.Tag]
		if !ok {
			i = len(out)
			idx[item.Tag] = i
			out = append(out, model.Group{Tag: item.Tag})
		}
		out[i].Count++
	}
	return out
}
