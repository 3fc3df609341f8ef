package todocli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todotrack/internal/config"
	"todotrack/internal/index/backend"
	"todotrack/internal/logging"
)

type Options struct {
	Backend      string
	ExcludeGlobs []string
	Gitignore    bool
	Tags         []string
	Workers      int
	Debounce     time.Duration
	NoInit       bool
	VimLines     bool
	Theme        string
	Jsonl        bool
	YAML         bool
	Explain      string
	LogLevel     string
	LogFormat    string

	colorblind   bool
	noColor      bool
	highContrast bool

	settingsErr error
	logger      *slog.Logger
}

func (o *Options) Prepare(logOut io.Writer) error {
	o.normalize()

	if o.settingsErr != nil {
		return fmt.Errorf("load settings: %w", o.settingsErr)
	}
	if !slices.Contains(backend.Names(), o.Backend) {
		return fmt.Errorf("invalid --backend %q (expected: %s)", o.Backend, strings.Join(backend.Names(), "|"))
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if o.Jsonl && o.YAML {
		return fmt.Errorf("--jsonl and --yaml are mutually exclusive")
	}

	switch o.Explain {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid --explain %q (expected: text|json)", o.Explain)
	}

	if logOut == nil {
		logOut = os.Stderr
	}
	log, err := logging.New(o.LogLevel, o.LogFormat, logOut)
	if err != nil {
		return err
	}
	o.logger = log
	return nil
}

func (o *Options) normalize() {
	o.Theme = "default"
	if o.colorblind {
		o.Theme = "colorblind"
	}
	if o.highContrast {
		o.Theme = "high-contrast"
	}
	if o.noColor {
		o.Theme = "none"
	}

	o.Backend = backend.NormalizeName(o.Backend)
	o.Explain = strings.ToLower(strings.TrimSpace(o.Explain))

	tags := o.Tags[:0]
	for _, t := range o.Tags {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	o.Tags = tags
}

// Logger returns the logger built by Prepare, or a discarding one.
func (o *Options) Logger() *slog.Logger {
	if o == nil {
		return logging.Discard()
	}
	return logging.OrDiscard(o.logger)
}

type optionsKey struct{}

func optionsFrom(cmd *cobra.Command) *Options {
	if cmd == nil {
		return nil
	}
	root := cmd.Root()
	if root == nil {
		root = cmd
	}
	v := root.Context().Value(optionsKey{})
	opts, _ := v.(*Options)
	return opts
}

func bindFlags(cmd *cobra.Command, opts *Options) {
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", opts.Backend, "result store backend: "+strings.Join(backend.Names(), "|"))
	cmd.PersistentFlags().StringSliceVarP(&opts.ExcludeGlobs, "exclude", "x", nil, "exclude these files (comma separated list: -x *.min.js,gen/**)")
	cmd.PersistentFlags().BoolVar(&opts.Gitignore, "gitignore", opts.Gitignore, "also skip files ignored by .gitignore")
	cmd.PersistentFlags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "only show these tags (can repeat)")
	cmd.PersistentFlags().IntVarP(&opts.Workers, "workers", "j", opts.Workers, "number of parallel file readers (default: CPU count)")
	cmd.PersistentFlags().BoolVar(&opts.NoInit, "no-init", opts.NoInit, "do not create .todo.json when it is missing")

	cmd.PersistentFlags().BoolVarP(&opts.VimLines, "vim-lines", "L", opts.VimLines, "vim friendly lines")
	cmd.PersistentFlags().BoolVarP(&opts.colorblind, "colorblind", "b", false, "colour blind friendly template")
	cmd.PersistentFlags().BoolVarP(&opts.noColor, "no-color", "z", false, "suppress colors")
	cmd.PersistentFlags().BoolVarP(&opts.highContrast, "high-contrast", "Z", false, "high contrast colors")

	cmd.PersistentFlags().BoolVar(&opts.Jsonl, "jsonl", opts.Jsonl, "output as JSONL")
	cmd.PersistentFlags().BoolVar(&opts.YAML, "yaml", opts.YAML, "output as YAML")
	cmd.PersistentFlags().StringVar(&opts.Explain, "explain", opts.Explain, "print scan stats to stderr (text|json)")
	cmd.PersistentFlags().Lookup("explain").NoOptDefVal = "text"

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "log format: text|json")
}

func ExecuteForTest(cmd *cobra.Command) (string, Options, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()

	opts := optionsFrom(cmd)
	if opts == nil {
		return out.String(), Options{}, err
	}
	opts.normalize()

	return out.String(), *opts, err
}

// newDefaultOptions seeds flag defaults from TODOTRACK_* settings.
func newDefaultOptions() *Options {
	opts := &Options{
		Backend:   "memory",
		Theme:     "default",
		LogLevel:  "info",
		LogFormat: "text",
		Debounce:  200 * time.Millisecond,
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	s, err := config.LoadSettings(cwd)
	if err != nil {
		opts.settingsErr = err
		return opts
	}
	opts.Backend = s.Backend
	opts.LogLevel = s.LogLevel
	opts.LogFormat = s.LogFormat
	opts.Workers = s.Workers
	if s.Debounce > 0 {
		opts.Debounce = s.Debounce
	}
	return opts
}

func withOptionsContext(cmd *cobra.Command, opts *Options) {
	cmd.SetContext(context.WithValue(context.Background(), optionsKey{}, opts))
}
