package walk

import (
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreMatcher answers "is this path git-ignored" for one project root. A
// zero matcher ignores nothing.
type ignoreMatcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// loadIgnoreMatcher collects every .gitignore under root. ReadPatterns also
// picks up .git/info/exclude.
func loadIgnoreMatcher(root string, enabled bool) (*ignoreMatcher, error) {
	if !enabled {
		return &ignoreMatcher{}, nil
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return &ignoreMatcher{}, nil
	}
	return &ignoreMatcher{matcher: gitignore.NewMatcher(patterns), patterns: len(patterns)}, nil
}

func (m *ignoreMatcher) isIgnored(relPath string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return false
	}
	return m.matcher.Match(strings.Split(relPath, "/"), isDir)
}
