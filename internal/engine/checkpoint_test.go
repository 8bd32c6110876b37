package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/agora/internal/engine"
)

func TestCheckpointRoundTrip(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := eng.Step(); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := eng.SaveCheckpoint(path); err != nil {
		t.Fatal(err)
	}

	restored, err := engine.RestoreCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	if restored.CurrentStep() != 10 {
		t.Errorf("expected step 10, got %d", restored.CurrentStep())
	}
	if restored.State() != engine.StateStepping {
		t.Errorf("expected stepping state, got %s", restored.State())
	}
	if restored.TotalTrades() != eng.TotalTrades() {
		t.Errorf("trade counter mismatch: %d vs %d", restored.TotalTrades(), eng.TotalTrades())
	}
	if len(restored.Entities()) != len(eng.Entities()) {
		t.Fatalf("entity count mismatch")
	}
	for i, p := range restored.Entities() {
		if p.Money != eng.Entities()[i].Money {
			t.Errorf("entity %d money %g != %g", i, p.Money, eng.Entities()[i].Money)
		}
		if len(p.Transactions) != len(eng.Entities()[i].Transactions) {
			t.Errorf("entity %d ledger length differs", i)
		}
	}
}

func TestCheckpointResumeReproducesRun(t *testing.T) {
	// A run interrupted at step k and resumed from a checkpoint must end
	// bit-identical to the uninterrupted run with the same seed.
	uninterrupted, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	interrupted, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if err := interrupted.Step(); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := interrupted.SaveCheckpoint(path); err != nil {
		t.Fatal(err)
	}

	resumed, err := engine.RestoreCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}

	want, err := uninterrupted.Run(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	got, err := resumed.Run(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(want, got) {
		t.Errorf("resumed run diverged from uninterrupted run:\n%+v\n%+v", want, got)
	}
}

func TestRestoreRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.RestoreCheckpoint(path); !errors.Is(err, engine.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestRestoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.RestoreCheckpoint(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRestoreMissingFile(t *testing.T) {
	if _, err := engine.RestoreCheckpoint(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFailedSaveLeavesEngineSteppable(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Step(); err != nil {
		t.Fatal(err)
	}

	// A directory path is unwritable as a file.
	if err := eng.SaveCheckpoint(t.TempDir()); err == nil {
		t.Fatal("expected save to an unwritable path to fail")
	}
	if err := eng.Step(); err != nil {
		t.Fatalf("engine not steppable after failed save: %v", err)
	}
}
