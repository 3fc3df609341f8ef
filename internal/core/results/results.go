package results

import (
	"fmt"
	"strings"
	"sync"

	"todotrack/internal/index/store"
	"todotrack/internal/model"
)

// Generation orders mutations. A full scan remembers the generation it
// started at so per-file updates that land while it runs are not lost.
type Generation uint64

// Store is the session's current set of records. Every mutation swaps the
// affected records under one lock, so readers see either the state before
// or after a replace, never a mix.
type Store struct {
	mu       sync.RWMutex
	be       store.Backend
	order    []string
	scanning int

	gen     Generation
	fileGen map[string]Generation
}

func New(be store.Backend) *Store {
	return &Store{be: be, fileGen: map[string]Generation{}}
}

func (s *Store) Close() error {
	if s == nil || s.be == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.be.Close()
}

func (s *Store) Backend() string {
	if s == nil || s.be == nil {
		return ""
	}
	return s.be.Backend()
}

// SetTagOrder sets the order groups are reported in. Tags are upper-cased.
func (s *Store) SetTagOrder(tags []string) {
	order := make([]string, 0, len(tags))
	for _, t := range tags {
		order = append(order, strings.ToUpper(strings.TrimSpace(t)))
	}
	s.mu.Lock()
	s.order = order
	s.mu.Unlock()
}

// BeginScan raises the scanning flag and returns the generation the scan
// starts from. Every BeginScan must be paired with EndScan.
func (s *Store) BeginScan() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning++
	return s.gen
}

func (s *Store) EndScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning > 0 {
		s.scanning--
	}
	if s.scanning == 0 {
		s.fileGen = map[string]Generation{}
	}
}

func (s *Store) Scanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning > 0
}

// ReplaceAll discards every record and installs recs.
func (s *Store) ReplaceAll(recs []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.be.ReplaceAll(recs); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	s.gen++
	return nil
}

// ReplaceAllSince installs the result of a full scan that began at since.
// Files replaced individually after since keep their newer records.
func (s *Store) ReplaceAllSince(since Generation, recs []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newer := map[string]struct{}{}
	for f, g := range s.fileGen {
		if g > since {
			newer[f] = struct{}{}
		}
	}
	if len(newer) > 0 {
		cur, err := s.be.All()
		if err != nil {
			return fmt.Errorf("replace all: %w", err)
		}
		merged := make([]model.Record, 0, len(recs))
		for _, r := range recs {
			if _, ok := newer[r.File]; !ok {
				merged = append(merged, r)
			}
		}
		for _, r := range cur {
			if _, ok := newer[r.File]; ok {
				merged = append(merged, r)
			}
		}
		recs = merged
	}

	if err := s.be.ReplaceAll(recs); err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	s.gen++
	return nil
}

// ReplaceForFile removes every record of fileID and appends recs, which
// may be empty.
func (s *Store) ReplaceForFile(fileID string, recs []model.Record) error {
	if strings.TrimSpace(fileID) == "" {
		return fmt.Errorf("file id is required")
	}
	for _, r := range recs {
		if r.File != fileID {
			return fmt.Errorf("record for %q passed to replace of %q", r.File, fileID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.be.ReplaceFile(fileID, recs); err != nil {
		return fmt.Errorf("replace %s: %w", fileID, err)
	}
	s.gen++
	s.fileGen[fileID] = s.gen
	return nil
}

// Query returns the records matching pred (nil matches all), grouped by
// tag in the configured order and in insertion order within a tag.
func (s *Store) Query(pred func(model.Record) bool) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.be.All()
	if err != nil {
		return nil, err
	}
	return groupByTag(filter(all, pred), s.order), nil
}

// Search returns records whose text matches text, ordered like Query.
func (s *Store) Search(text string, limit int) ([]model.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("search text is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.be.(store.Searcher)
	if !ok {
		return nil, fmt.Errorf("backend %s does not support search", s.be.Backend())
	}
	recs, err := sr.SearchText(text, limit)
	if err != nil {
		return nil, err
	}
	return groupByTag(recs, s.order), nil
}

// Groups reports the non-empty tag groups.
func (s *Store) Groups() ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.be.All()
	if err != nil {
		return nil, err
	}
	return groups(all, s.order), nil
}

// Snapshot returns the scanning flag and the groups from one consistent read.
func (s *Store) Snapshot() (bool, []model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.be.All()
	if err != nil {
		return false, nil, err
	}
	return s.scanning > 0, groups(all, s.order), nil
}

func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.be.Count()
}

func filter(recs []model.Record, pred func(model.Record) bool) []model.Record {
	if pred == nil {
		return recs
	}
	out := recs[:0:0]
	for _, r := range recs {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// tagSequence is order followed by any other tags present, in first-seen order.
func tagSequence(recs []model.Record, order []string) []string {
	seq := append([]string(nil), order...)
	known := map[string]struct{}{}
	for _, t := range order {
		known[t] = struct{}{}
	}
	for _, r := range recs {
		if _, ok := known[r.Tag]; !ok {
			known[r.Tag] = struct{}{}
			seq = append(seq, r.Tag)
		}
	}
	return seq
}

func groupByTag(recs []model.Record, order []string) []model.Record {
	byTag := map[string][]model.Record{}
	for _, r := range recs {
		byTag[r.Tag] = append(byTag[r.Tag], r)
	}
	out := make([]model.Record, 0, len(recs))
	for _, t := range tagSequence(recs, order) {
		out = append(out, byTag[t]...)
	}
	return out
}

func groups(recs []model.Record, order []string) []model.Group {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.Tag]++
	}
	var out []model.Group
	for _, t := range tagSequence(recs, order) {
		if n := counts[t]; n > 0 {
			out = append(out, model.Group{Tag: t, Count: n})
		}
	}
	return out
}

// ByTag matches records with the given tag, case-insensitively.
func ByTag(tag string) func(model.Record) bool {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	return func(r model.Record) bool { return r.Tag == tag }
}

// ByFile matches records of one file.
func ByFile(fileID string) func(model.Record) bool {
	return func(r model.Record) bool { return r.File == fileID }
}

// AnyTag matches records whose tag is in tags; an empty list matches all.
func AnyTag(tags []string) func(model.Record) bool {
	if len(tags) == 0 {
		return nil
	}
	set := map[string]struct{}{}
	for _, t := range tags {
		set[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	return func(r model.Record) bool {
		_, ok := set[r.Tag]
		return ok
	}
}
