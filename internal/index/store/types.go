package store

import "todotrack/internal/model"

// Backend holds the current record set. Implementations keep records in
// insertion order and live only as long as the process.
type Backend interface {
	Close() error
	Backend() string

	// ReplaceAll drops every record and installs recs.
	ReplaceAll(recs []model.Record) error
	// ReplaceFile drops every record of path and appends recs.
	ReplaceFile(path string, recs []model.Record) error
	// All returns every record in insertion order.
	All() ([]model.Record, error)
	Count() (int, error)
}

// Searcher is implemented by backends that can look up records by text.
type Searcher interface {
	SearchText(text string, limit int) ([]model.Record, error)
}
