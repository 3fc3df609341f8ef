package walk

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which paths belong to the scan set. It is shared by the
// full walk and the watcher so both agree on what a project file is.
type Filter struct {
	opts    Options
	include string
	exclude string
	ig      *ignoreMatcher
}

func NewFilter(root string, opts Options) (*Filter, error) {
	ig, err := loadIgnoreMatcher(root, opts.RespectGitignore)
	if err != nil {
		return nil, err
	}
	return &Filter{
		opts:    opts,
		include: IncludePattern(opts.FileTypes),
		exclude: ExcludePattern(),
		ig:      ig,
	}, nil
}

func (f *Filter) ShouldInclude(rel string, isDir bool) bool {
	if f == nil {
		return false
	}
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return isDir
	}

	if isDir {
		if isExcludedDir(path.Base(rel)) {
			return false
		}
		return !f.ig.isIgnored(rel, true)
	}

	if f.include == "" {
		return false
	}
	if ok, _ := doublestar.Match(f.exclude, rel); ok {
		return false
	}
	if ok, _ := doublestar.Match(f.include, rel); !ok {
		return false
	}
	if f.ig.isIgnored(rel, false) {
		return false
	}
	return !anyGlobMatch(f.opts.ExcludeGlobs, rel)
}

func anyGlobMatch(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matchesGlob(pat, rel) {
			return true
		}
	}
	return false
}

func matchesGlob(pattern string, rel string) bool {
	pat := strings.TrimSpace(pattern)
	if pat == "" {
		return false
	}
	pat = strings.ReplaceAll(pat, "\\", "/")

	// Support csv passed via -x "*.js,*.sql".
	if strings.Contains(pat, ",") && !strings.Contains(pat, "{") {
		for _, piece := range strings.Split(pat, ",") {
			if matchesGlob(piece, rel) {
				return true
			}
		}
		return false
	}

	// Treat patterns without path separators as basename patterns.
	if !strings.Contains(pat, "/") {
		ok, _ := doublestar.Match(pat, path.Base(rel))
		return ok
	}
	ok, _ := doublestar.Match(pat, rel)
	return ok
}
