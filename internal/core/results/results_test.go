package results

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"todotrack/internal/index/backend"
	"todotrack/internal/model"
)

func openStore(t *testing.T, name string) *Store {
	t.Helper()
	be, err := backend.Open(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	s := New(be)
	t.Cleanup(func() { _ = s.Close() })
	s.SetTagOrder([]string{"todo", "FIXME", "NOTE"})
	return s
}

func rec(tag, file string, line int, text string) model.Record {
	return model.Record{Tag: tag, File: file, Line: line, Text: text}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	for _, name := range backend.Names() {
		t.Run(name, func(t *testing.T) {
			fn(t, openStore(t, name))
		})
	}
}

func TestStore_ReplaceAllAndQueryOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		in := []model.Record{
			rec("NOTE", "b.go", 1, "// NOTE b1"),
			rec("TODO", "a.go", 3, "// TODO a3"),
			rec("HACK", "c.go", 1, "// HACK c1"),
			rec("TODO", "b.go", 7, "// TODO b7"),
		}
		if err := s.ReplaceAll(in); err != nil {
			t.Fatalf("replace all: %v", err)
		}

		got, err := s.Query(nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		want := []model.Record{in[1], in[3], in[0], in[2]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("query mismatch (-want +got):\n%s", diff)
		}

		groups, err := s.Groups()
		if err != nil {
			t.Fatalf("groups: %v", err)
		}
		wantGroups := []model.Group{{Tag: "TODO", Count: 2}, {Tag: "NOTE", Count: 1}, {Tag: "HACK", Count: 1}}
		if diff := cmp.Diff(wantGroups, groups); diff != "" {
			t.Fatalf("groups mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_ReplaceForFileClearsAndKeepsOthers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		a1 := rec("TODO", "a.go", 1, "// TODO a1")
		a2 := rec("FIXME", "a.go", 2, "// FIXME a2")
		b1 := rec("TODO", "b.go", 1, "// TODO b1")
		if err := s.ReplaceAll([]model.Record{a1, a2, b1}); err != nil {
			t.Fatalf("replace all: %v", err)
		}

		if err := s.ReplaceForFile("a.go", nil); err != nil {
			t.Fatalf("replace file: %v", err)
		}
		got, err := s.Query(nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if diff := cmp.Diff([]model.Record{b1}, got); diff != "" {
			t.Fatalf("after clear (-want +got):\n%s", diff)
		}

		a9 := rec("TODO", "a.go", 9, "// TODO a9")
		if err := s.ReplaceForFile("a.go", []model.Record{a9}); err != nil {
			t.Fatalf("replace file: %v", err)
		}
		got, err = s.Query(ByTag("todo"))
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if diff := cmp.Diff([]model.Record{b1, a9}, got); diff != "" {
			t.Fatalf("after replace (-want +got):\n%s", diff)
		}

		groups, err := s.Groups()
		if err != nil {
			t.Fatalf("groups: %v", err)
		}
		if len(groups) != 1 || groups[0].Tag != "TODO" {
			t.Fatalf("empty groups must be hidden, got %+v", groups)
		}
	})
}

func TestStore_ReplaceForFileRejectsForeignRecords(t *testing.T) {
	s := openStore(t, "memory")
	if err := s.ReplaceForFile("a.go", []model.Record{rec("TODO", "b.go", 1, "x")}); err == nil {
		t.Fatal("expected error")
	}
	if err := s.ReplaceForFile("", nil); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestStore_Search(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		in := []model.Record{
			rec("TODO", "a.go", 1, "// TODO handle timeout"),
			rec("NOTE", "a.go", 2, "// NOTE cache is warm"),
			rec("FIXME", "b.go", 5, "// FIXME Timeout too short"),
		}
		if err := s.ReplaceAll(in); err != nil {
			t.Fatalf("replace all: %v", err)
		}
		got, err := s.Search("timeout", 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if diff := cmp.Diff([]model.Record{in[0], in[2]}, got); diff != "" {
			t.Fatalf("search mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_ScanningFlag(t *testing.T) {
	s := openStore(t, "memory")
	if s.Scanning() {
		t.Fatal("new store must not be scanning")
	}
	s.BeginScan()
	scanning, _, err := s.Snapshot()
	if err != nil || !scanning {
		t.Fatalf("expected scanning, got %v err=%v", scanning, err)
	}
	s.EndScan()
	if s.Scanning() {
		t.Fatal("expected scanning cleared")
	}
	s.EndScan()
	if s.Scanning() {
		t.Fatal("unbalanced EndScan must not go negative")
	}
}

func TestStore_IncrementalUpdateDuringFullScanWins(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		if err := s.ReplaceAll([]model.Record{rec("TODO", "a.go", 1, "// TODO old")}); err != nil {
			t.Fatalf("replace all: %v", err)
		}

		since := s.BeginScan()
		// A save lands while the full scan is still reading files.
		fresh := rec("FIXME", "a.go", 4, "// FIXME fresh")
		if err := s.ReplaceForFile("a.go", []model.Record{fresh}); err != nil {
			t.Fatalf("replace file: %v", err)
		}
		stale := []model.Record{
			rec("TODO", "a.go", 1, "// TODO old"),
			rec("NOTE", "b.go", 2, "// NOTE b"),
		}
		if err := s.ReplaceAllSince(since, stale); err != nil {
			t.Fatalf("replace since: %v", err)
		}
		s.EndScan()

		got, err := s.Query(nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		want := []model.Record{fresh, stale[1]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}

		// Without concurrent saves the full scan wins outright.
		since = s.BeginScan()
		if err := s.ReplaceAllSince(since, stale); err != nil {
			t.Fatalf("replace since: %v", err)
		}
		s.EndScan()
		got, err = s.Query(nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if diff := cmp.Diff([]model.Record{stale[0], stale[1]}, got); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_ReadersNeverSeeHalfReplacedFile(t *testing.T) {
	for _, name := range []string{"memory", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			s := openStore(t, name)
			oldSet := []model.Record{rec("TODO", "x.go", 1, "old"), rec("TODO", "x.go", 2, "old")}
			newSet := []model.Record{rec("NOTE", "x.go", 1, "new"), rec("NOTE", "x.go", 2, "new"), rec("NOTE", "x.go", 3, "new")}
			other := rec("FIXME", "y.go", 1, "other")
			if err := s.ReplaceAll(append([]model.Record{other}, oldSet...)); err != nil {
				t.Fatalf("replace all: %v", err)
			}

			var wg sync.WaitGroup
			stop := make(chan struct{})
			errs := make(chan string, 8)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-stop:
							return
						default:
						}
						got, err := s.Query(ByFile("x.go"))
						if err != nil {
							errs <- err.Error()
							return
						}
						ok := (len(got) == 2 && got[0].Text == "old" && got[1].Text == "old") ||
							(len(got) == 3 && got[0].Text == "new" && got[2].Text == "new")
						if !ok {
							errs <- "observed mixed state"
							return
						}
					}
				}()
			}

			for i := 0; i < 200; i++ {
				set := oldSet
				if i%2 == 0 {
					set = newSet
				}
				if err := s.ReplaceForFile("x.go", set); err != nil {
					t.Fatalf("replace file: %v", err)
				}
			}
			close(stop)
			wg.Wait()
			close(errs)
			for e := range errs {
				t.Fatal(e)
			}

			got, err := s.Query(ByFile("y.go"))
			if err != nil || len(got) != 1 {
				t.Fatalf("other file disturbed: %v err=%v", got, err)
			}
		})
	}
}
