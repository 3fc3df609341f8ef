package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"todotrack/internal/model"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

// Open creates a private in-memory database.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Backend() string { return "sqlite" }

func (s *Store) ReplaceAll(recs []model.Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return err
	}
	if err := insertRecords(tx, recs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ReplaceFile(path string, recs []model.Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM records WHERE path = ?`, path); err != nil {
		return err
	}
	if err := insertRecords(tx, recs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) All() ([]model.Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	rows, err := s.db.Query(`SELECT path, tag, line, text FROM records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *Store) Count() (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store is not open")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM records`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SearchText matches case-insensitively (ASCII) on the comment text.
func (s *Store) SearchText(text string, limit int) ([]model.Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT path, tag, line, text FROM records
		 WHERE text LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY seq
		 LIMIT ?`,
		escapeLike(strings.TrimSpace(text)),
		limit,
	)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		return err
	}
	return execStatements(s.db, schemaSQL)
}

func insertRecords(tx *sql.Tx, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO records(path, tag, line, text) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.Exec(r.File, r.Tag, r.Line, r.Text); err != nil {
			return err
		}
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]model.Record, error) {
	defer rows.Close()
	var out []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.File, &r.Tag, &r.Line, &r.Text); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func execStatements(db *sql.DB, sqlText string) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	sqlText = strings.ReplaceAll(sqlText, "\r\n", "\n")

	var cleaned strings.Builder
	for _, line := range strings.Split(sqlText, "\n") {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "--") {
			continue
		}
		cleaned.WriteString(line)
		cleaned.WriteString("\n")
	}

	for _, raw := range strings.Split(cleaned.String(), ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
