package state

import (
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/types"
)

func testRun(id string, start time.Time, success bool) *types.RunRecord {
	return &types.RunRecord{
		ID:            id,
		StartedAt:     start,
		FinishedAt:    start.Add(time.Minute),
		AdvertiseAddr: "10.0.0.5",
		Success:       success,
		Steps: []types.StepOutcome{
			{Name: "fetch-binaries", Status: types.StepStatusApplied, Attempts: 1},
			{Name: "render-configs", Status: types.StepStatusSatisfied},
		},
	}
}

func TestOpenClose(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRecordAndLatest(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	// No runs yet
	run, err := store.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if run != nil {
		t.Fatal("LatestRun() returned a run before any was recorded")
	}

	first := testRun("run-1", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false)
	second := testRun("run-2", time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), true)

	if err := store.RecordRun(first); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := store.RecordRun(second); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	latest, err := store.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest.ID != "run-2" {
		t.Errorf("LatestRun().ID = %v, want run-2", latest.ID)
	}
	if !latest.Success {
		t.Error("LatestRun().Success = false, want true")
	}
	if len(latest.Steps) != 2 {
		t.Errorf("LatestRun() has %d steps, want 2", len(latest.Steps))
	}
}

func TestGetRun(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	run := testRun("run-x", time.Now().UTC(), true)
	if err := store.RecordRun(run); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	got, err := store.GetRun("run-x")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.AdvertiseAddr != "10.0.0.5" {
		t.Errorf("AdvertiseAddr = %v", got.AdvertiseAddr)
	}

	if _, err := store.GetRun("missing"); err == nil {
		t.Error("GetRun(missing) should fail")
	}
}

func TestListRunsOrder(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.RecordRun(testRun(id, base.Add(time.Duration(i)*time.Hour), true)); err != nil {
			t.Fatalf("RecordRun() error = %v", err)
		}
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(runs))
	}
	if runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("runs not newest-first: %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.RecordRun(testRun("run-1", time.Now().UTC(), true)); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	latest, err := reopened.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest == nil || latest.ID != "run-1" {
		t.Error("run record did not survive reopen")
	}
}
