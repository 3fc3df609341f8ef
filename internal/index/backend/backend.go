package backend

import (
	"fmt"
	"strings"

	"todotrack/internal/index/bleve"
	"todotrack/internal/index/memory"
	"todotrack/internal/index/sqlite"
	"todotrack/internal/index/store"
)

func Names() []string { return []string{"memory", "sqlite", "bleve"} }

func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "memory", "mem":
		return "memory"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "bleve":
		return "bleve"
	default:
		return name
	}
}

func Open(name string) (store.Backend, error) {
	switch NormalizeName(name) {
	case "memory":
		return memory.Open(), nil
	case "sqlite":
		return sqlite.Open()
	case "bleve":
		return bleve.Open()
	default:
		return nil, fmt.Errorf("unknown store backend: %s", name)
	}
}
