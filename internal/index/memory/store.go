package memory

import (
	"strings"

	"todotrack/internal/model"
)

// Store is a plain slice. Callers serialize access.
type Store struct {
	recs []model.Record
}

func Open() *Store { return &Store{} }

func (s *Store) Close() error    { return nil }
func (s *Store) Backend() string { return "memory" }

func (s *Store) ReplaceAll(recs []model.Record) error {
	s.recs = append([]model.Record(nil), recs...)
	return nil
}

func (s *Store) ReplaceFile(path string, recs []model.Record) error {
	kept := make([]model.Record, 0, len(s.recs)+len(recs))
	for _, r := range s.recs {
		if r.File != path {
			kept = append(kept, r)
		}
	}
	s.recs = append(kept, recs...)
	return nil
}

func (s *Store) All() ([]model.Record, error) {
	return append([]model.Record(nil), s.recs...), nil
}

func (s *Store) Count() (int, error) { return len(s.recs), nil }

func (s *Store) SearchText(text string, limit int) ([]model.Record, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	var out []model.Record
	for _, r := range s.recs {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(r.Text), needle) {
			out = append(out, r)
		}
	}
	return out, nil
}
