package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "capreport-history-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	store, err := Open(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capreport-history-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "history.db")
	if store.Path() != expectedPath {
		t.Errorf("path = %q, want %q", store.Path(), expectedPath)
	}

	if err := store.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	// Re-open the existing database
	store, err = Open(tmpDir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	store.Close()
}

func TestRecordAndGetRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	run := &Run{
		ReportName: "cluster-capacity",
		ReportType: "cluster",
		Format:     "table",
		RowCount:   12,
		Output:     "rendered table",
		StartedAt:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 8, 20, 10, 0, 5, 0, time.UTC),
	}

	if err := store.RecordRun(run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run id was not generated")
	}
	if run.Status != StatusOK {
		t.Errorf("status = %q, want %q", run.Status, StatusOK)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.ReportName != "cluster-capacity" || got.RowCount != 12 {
		t.Errorf("run = %+v", got)
	}
	if got.Output != "rendered table" {
		t.Errorf("output = %q", got.Output)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("started at = %v, want %v", got.StartedAt, run.StartedAt)
	}
}

func TestGetRunMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetRun("no-such-run")
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.RecordRun(&Run{
			ReportName: "r",
			ReportType: "cluster",
			Format:     "table",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}

	limited, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d runs, want 2", len(limited))
	}
}

func TestRecordFailedRun(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.RecordRun(&Run{
		ReportName: "r",
		ReportType: "actions",
		Format:     "json",
		Status:     StatusFailed,
		Error:      "scope x: 502 from /actions",
	})
	if err != nil {
		t.Fatalf("record run: %v", err)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.RunCount != 1 || stats.FailCount != 1 {
		t.Errorf("stats = %+v, want 1 run, 1 failed", stats)
	}
}

func TestPrune(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.RecordRun(&Run{
			ReportName: "r",
			ReportType: "cluster",
			Format:     "table",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	pruned, err := store.Prune(2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 3 {
		t.Errorf("pruned %d runs, want 3", pruned)
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs after prune, want 2", len(runs))
	}
	// the survivors are the newest
	if !runs[0].StartedAt.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("newest surviving run started at %v", runs[0].StartedAt)
	}
}

func TestClearAndStats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	if err := store.RecordRun(&Run{ReportName: "r", ReportType: "targets", Format: "csv"}); err != nil {
		t.Fatalf("record run: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.RunCount != 0 {
		t.Errorf("run count = %d after clear, want 0", stats.RunCount)
	}
}
