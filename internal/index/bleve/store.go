package bleve

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bquery "github.com/blevesearch/bleve/v2/search/query"

	"todotrack/internal/model"
)

var recordFields = []string{"path", "tag", "line", "text"}

// Store keeps records in a memory-only bleve index, which gives text
// search over comment bodies for free.
type Store struct {
	idx bleve.Index

	seq   uint64
	files map[string][]string
}

func Open() (*Store, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Store{idx: idx, files: map[string][]string{}}, nil
}

func (s *Store) Close() error {
	if s == nil || s.idx == nil {
		return nil
	}
	return s.idx.Close()
}

func (s *Store) Backend() string { return "bleve" }

func (s *Store) ReplaceAll(recs []model.Record) error {
	if s == nil || s.idx == nil {
		return fmt.Errorf("store is not open")
	}
	batch := s.idx.NewBatch()
	for _, ids := range s.files {
		for _, id := range ids {
			batch.Delete(id)
		}
	}
	files := map[string][]string{}
	if err := s.indexRecords(batch, files, recs); err != nil {
		return err
	}
	if err := s.idx.Batch(batch); err != nil {
		return err
	}
	s.files = files
	return nil
}

func (s *Store) ReplaceFile(path string, recs []model.Record) error {
	if s == nil || s.idx == nil {
		return fmt.Errorf("store is not open")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	batch := s.idx.NewBatch()
	for _, id := range s.files[path] {
		batch.Delete(id)
	}
	files := map[string][]string{}
	if err := s.indexRecords(batch, files, recs); err != nil {
		return err
	}
	if err := s.idx.Batch(batch); err != nil {
		return err
	}
	delete(s.files, path)
	for p, ids := range files {
		s.files[p] = append(s.files[p], ids...)
	}
	return nil
}

func (s *Store) All() ([]model.Record, error) {
	return s.search(bleve.NewMatchAllQuery(), 0)
}

func (s *Store) Count() (int, error) {
	if s == nil || s.idx == nil {
		return 0, fmt.Errorf("store is not open")
	}
	n, err := s.idx.DocCount()
	return int(n), err
}

// SearchText runs an analyzed match query against the comment text.
func (s *Store) SearchText(text string, limit int) ([]model.Record, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("search text is required")
	}
	q := bleve.NewMatchQuery(text)
	q.SetField("text")
	return s.search(q, limit)
}

func (s *Store) search(q bquery.Query, limit int) ([]model.Record, error) {
	if s == nil || s.idx == nil {
		return nil, fmt.Errorf("store is not open")
	}
	total, err := s.idx.DocCount()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	size := int(total)
	if limit > 0 && limit < size {
		size = limit
	}

	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = recordFields
	req.SortBy([]string{"seq"})

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]model.Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var r model.Record
		if v, ok := hit.Fields["path"].(string); ok {
			r.File = v
		}
		if v, ok := hit.Fields["tag"].(string); ok {
			r.Tag = v
		}
		if v, ok := toInt(hit.Fields["line"]); ok {
			r.Line = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			r.Text = v
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) indexRecords(batch *bleve.Batch, files map[string][]string, recs []model.Record) error {
	for _, r := range recs {
		s.seq++
		id := fmt.Sprintf("rec|%020d", s.seq)
		doc := map[string]any{
			"path": r.File,
			"tag":  r.Tag,
			"line": r.Line,
			"text": r.Text,
			"seq":  s.seq,
		}
		if err := batch.Index(id, doc); err != nil {
			return err
		}
		files[r.File] = append(files[r.File], id)
	}
	return nil
}

func buildMapping() mapping.IndexMapping {
	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultAnalyzer = "standard"

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true
	keyword.DocValues = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true

	num := bleve.NewNumericFieldMapping()
	num.Store = true
	num.Index = true
	num.DocValues = true

	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("tag", keyword)
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("line", num)
	doc.AddFieldMappingsAt("seq", num)

	idxMapping.DefaultMapping = doc
	return idxMapping
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
