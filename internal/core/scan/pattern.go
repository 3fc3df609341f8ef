package scan

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Compile builds the comment pattern for tags: a "//" marker, optional
// whitespace, one tag as a whole word, an optional colon, then the rest of
// the line. Matching is case-insensitive. Group 1 is the whole comment and
// group 2 the tag as written in the source.
func Compile(tags []string) (*regexp.Regexp, error) {
	alts := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(t))
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("at least one tag is required")
	}
	return regexp.Compile(`(?i)(//\s*(` + strings.Join(alts, "|") + `)\b:?[^\r\n]*)`)
}

type patternCache struct {
	c *lru.Cache[string, *regexp.Regexp]
}

func newPatternCache(size int) *patternCache {
	if size <= 0 {
		size = 16
	}
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return &patternCache{}
	}
	return &patternCache{c: c}
}

func (p *patternCache) get(tags []string) (*regexp.Regexp, error) {
	key := strings.Join(tags, "\x00")
	if p != nil && p.c != nil {
		if re, ok := p.c.Get(key); ok {
			return re, nil
		}
	}
	re, err := Compile(tags)
	if err != nil {
		return nil, err
	}
	if p != nil && p.c != nil {
		p.c.Add(key, re)
	}
	return re, nil
}
