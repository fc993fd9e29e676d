package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/lattice"
)

func newTestEngine(t *testing.T, nx, ny int) *fluid.Engine {
	t.Helper()
	p := fluid.DefaultParams()
	p.Nx, p.Ny = nx, ny
	p.Workers = 1
	e, err := fluid.NewEngine(p, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	e.InitializeEquilibrium()
	return e
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	e := newTestEngine(t, 8, 4)
	e.Populations().Set(3, 2, lattice.East, 0.25)
	for i := 0; i < 3; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	snap := CaptureSnapshot(e, 42)
	snap.Bookmark = &Bookmark{Type: BookmarkSheddingOnset, Step: 3}

	path, err := SaveSnapshot(snap, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_3_shedding_onset.json") {
		t.Errorf("unexpected snapshot path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.Version != SnapshotVersion || loaded.Seed != 42 || loaded.Step != 3 {
		t.Errorf("header = v%d seed %d step %d", loaded.Version, loaded.Seed, loaded.Step)
	}
	if loaded.Nx != 8 || loaded.Ny != 4 || loaded.Tau != e.Params().Tau {
		t.Errorf("grid = %dx%d tau %v", loaded.Nx, loaded.Ny, loaded.Tau)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkSheddingOnset {
		t.Errorf("bookmark = %+v", loaded.Bookmark)
	}
	for d := range loaded.Populations {
		want := snap.Populations[d]
		got := loaded.Populations[d]
		if len(got) != len(want) {
			t.Fatalf("direction %d: %d cells, want %d", d, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("direction %d cell %d = %v, want %v", d, i, got[i], want[i])
			}
		}
	}
}

func TestSnapshotRestoreResumesRun(t *testing.T) {
	a := newTestEngine(t, 10, 6)
	a.Populations().Set(4, 3, lattice.NorthEast, 0.2)
	for i := 0; i < 5; i++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
	}
	snap := CaptureSnapshot(a, 1)

	b := newTestEngine(t, 10, 6)
	if err := snap.Apply(b); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.StepCount() != 5 {
		t.Errorf("restored StepCount() = %d, want 5", b.StepCount())
	}

	for i := 0; i < 4; i++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
		if err := b.Step(); err != nil {
			t.Fatal(err)
		}
	}
	for d := lattice.Direction(0); d < lattice.Q; d++ {
		la, lb := a.Populations().Layer(d), b.Populations().Layer(d)
		for i := range la {
			if la[i] != lb[i] {
				t.Fatalf("direction %d cell %d diverged: %v vs %v", d, i, la[i], lb[i])
			}
		}
	}
}

func TestSnapshotApplyRejectsMismatch(t *testing.T) {
	snap := CaptureSnapshot(newTestEngine(t, 8, 4), 1)

	if err := snap.Apply(newTestEngine(t, 6, 4)); err == nil {
		t.Error("expected error for grid mismatch")
	}

	snap.Version = SnapshotVersion + 1
	if err := snap.Apply(newTestEngine(t, 8, 4)); err == nil {
		t.Error("expected error for version mismatch")
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for malformed file")
	}
}
