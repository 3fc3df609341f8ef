package walk

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"todotrack/internal/logging"
)

// ExcludedDirs are skipped at any depth.
var ExcludedDirs = []string{"node_modules", ".git", "dist", "build", "out", "coverage", "logs", "vendor"}

type Options struct {
	FileTypes        []string
	ExcludeGlobs     []string
	RespectGitignore bool
	Logger           *slog.Logger
}

// ListFiles returns the slash-separated paths, relative to root, of every
// file matching opts. The result is sorted.
func ListFiles(ctx context.Context, root string, opts Options) ([]string, error) {
	f, err := NewFilter(root, opts)
	if err != nil {
		return nil, err
	}

	log := logging.OrDiscard(opts.Logger)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return skipUnreadable(log, path, d, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !f.ShouldInclude(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if f.ShouldInclude(rel, false) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// skipUnreadable logs an entry the walk could not read and moves past it.
// An unreadable directory is pruned.
func skipUnreadable(log *slog.Logger, path string, d fs.DirEntry, err error) error {
	log.Warn("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// IncludePattern renders the glob a file must match, e.g. "**/*.{go,js}".
func IncludePattern(fileTypes []string) string {
	exts := make([]string, 0, len(fileTypes))
	for _, ext := range fileTypes {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	switch len(exts) {
	case 0:
		return ""
	case 1:
		return "**/*." + exts[0]
	default:
		return "**/*.{" + strings.Join(exts, ",") + "}"
	}
}

// ExcludePattern renders the fixed directory exclusions as one glob.
func ExcludePattern() string {
	return "**/{" + strings.Join(ExcludedDirs, ",") + "}/**"
}

func isExcludedDir(name string) bool {
	for _, d := range ExcludedDirs {
		if name == d {
			return true
		}
	}
	return false
}
