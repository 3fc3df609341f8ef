package todocli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"todotrack/internal/core/tracker"
	"todotrack/internal/core/watch"
)

func newWatchCommand() *cobra.Command {
	var (
		debounce time.Duration
		adaptive bool
	)
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Scan the project, then rescan saved files and reprint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, opts, err := openTracker(cmd, rootArg(args))
			if err != nil {
				return err
			}
			defer t.Close()
			if debounce <= 0 {
				debounce = opts.Debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := t.Refresh(ctx); err != nil {
				return err
			}

			p := &printer{cmd: cmd, opts: opts, t: t}
			p.print()

			w, err := watch.NewWatcher(t.Root(), t, watch.Options{
				Debounce:         debounce,
				AdaptiveDebounce: adaptive,
				Logger:           opts.Logger(),
				UpdateFunc: func(paths []string) {
					opts.Logger().Debug("saved", slog.Any("paths", paths))
					t.HandleSaved(ctx, paths)
					p.print()
				},
			})
			if err != nil {
				return err
			}
			defer w.Close()

			err = w.Run(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "delay before a batch of saves is rescanned (default from TODOTRACK_DEBOUNCE or 200ms)")
	cmd.Flags().BoolVar(&adaptive, "adaptive-debounce", false, "shorten the delay for small batches and lengthen it for large ones")
	return cmd
}

// printer serializes re-renders coming from the watcher goroutine.
type printer struct {
	mu   sync.Mutex
	cmd  *cobra.Command
	opts *Options
	t    *tracker.Tracker
	n    int
}

func (p *printer) print() {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := buildReport(p.t, p.opts.Tags)
	if err != nil {
		p.opts.Logger().Error("snapshot failed", slog.Any("error", err))
		return
	}
	out, err := render(p.opts, r)
	if err != nil {
		p.opts.Logger().Error("render failed", slog.Any("error", err))
		return
	}

	w := p.cmd.OutOrStdout()
	if p.n > 0 && !p.opts.Jsonl && !p.opts.YAML && !p.opts.VimLines {
		_, _ = fmt.Fprintf(w, "\n-- %s --\n", time.Now().Format(time.TimeOnly))
	}
	if p.opts.YAML && p.n > 0 {
		_, _ = fmt.Fprintln(w, "---")
	}
	_, _ = fmt.Fprint(w, out)
	p.n++
}
