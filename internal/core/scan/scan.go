package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"todotrack/internal/config"
	"todotrack/internal/logging"
	"todotrack/internal/model"
)

// Source returns the full content of a file.
type Source interface {
	ReadFile(ctx context.Context, fileID string) ([]byte, error)
}

// OSSource reads from the local filesystem. Relative ids resolve against Root.
type OSSource struct {
	Root string
}

func (s OSSource) ReadFile(_ context.Context, fileID string) ([]byte, error) {
	p := filepath.FromSlash(fileID)
	if !filepath.IsAbs(p) && s.Root != "" {
		p = filepath.Join(s.Root, p)
	}
	return os.ReadFile(p)
}

type Options struct {
	Workers int
	Logger  *slog.Logger
}

type Scanner struct {
	src      Source
	workers  int
	log      *slog.Logger
	patterns *patternCache
}

type Stats struct {
	Files    int           `json:"files"`
	Scanned  int           `json:"scanned"`
	Failed   int           `json:"failed"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

func New(src Source, opts Options) *Scanner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		src:      src,
		workers:  workers,
		log:      logging.OrDiscard(opts.Logger),
		patterns: newPatternCache(16),
	}
}

// ScanText returns every tagged comment in text, in source order.
func ScanText(fileID string, text string, re *regexp.Regexp) []model.Record {
	if re == nil || text == "" {
		return nil
	}
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	out := make([]model.Record, 0, len(locs))
	line, offset := 1, 0
	for _, loc := range locs {
		start := loc[2]
		line += strings.Count(text[offset:start], "\n")
		offset = start
		out = append(out, model.Record{
			Tag:  strings.ToUpper(text[loc[4]:loc[5]]),
			File: fileID,
			Line: line,
			Text: text[loc[2]:loc[3]],
		})
	}
	return out
}

// ScanFiles reads and scans every file concurrently and returns once all
// of them are done. A file that cannot be read is logged and contributes
// no records; it does not affect the others.
func (s *Scanner) ScanFiles(ctx context.Context, files []string, cfg config.Config) ([]model.Record, Stats, error) {
	start := time.Now()
	stats := Stats{Files: len(files)}

	re, err := s.patterns.get(cfg.CommentTypes)
	if err != nil {
		return nil, stats, err
	}

	perFile := make([][]model.Record, len(files))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, fileID := range files {
		i, fileID := i, fileID
		g.Go(func() error {
			recs, ok := s.scanOne(ctx, fileID, re)
			perFile[i] = recs

			mu.Lock()
			if ok {
				stats.Scanned++
			} else {
				stats.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []model.Record
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	stats.Records = len(out)
	stats.Duration = time.Since(start)
	return out, stats, nil
}

// ScanFile rescans a single file. A read failure is logged and yields no
// records.
func (s *Scanner) ScanFile(ctx context.Context, fileID string, cfg config.Config) ([]model.Record, error) {
	re, err := s.patterns.get(cfg.CommentTypes)
	if err != nil {
		return nil, err
	}
	recs, _ := s.scanOne(ctx, fileID, re)
	return recs, nil
}

// scanOne reads and scans one file. Content is scanned as text whatever
// bytes it holds; ok is false only when the read fails.
func (s *Scanner) scanOne(ctx context.Context, fileID string, re *regexp.Regexp) (recs []model.Record, ok bool) {
	if s.src == nil {
		s.log.Warn("no file source configured", slog.String("file", fileID))
		return nil, false
	}
	b, err := s.src.ReadFile(ctx, fileID)
	if err != nil {
		s.log.Warn("error scanning file", slog.String("file", fileID), slog.Any("error", fmt.Errorf("read: %w", err)))
		return nil, false
	}
	return ScanText(fileID, string(b), re), true
}
