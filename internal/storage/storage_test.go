package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var datasets = []string{"TESS", "Kepler", "K2"}

type tessRecord struct {
	ID         int     `json:"id"`
	PlanetName string  `json:"planet_name"`
	PeriodDays float64 `json:"period_days"`
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir, datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	dbPath := filepath.Join(tempDir, FileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if store.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, store.Path())
	}
}

func TestNew_InvalidPath(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "missing", "dir")

	_, err := New(invalidPath, datasets...)
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir(), datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestArchive(t *testing.T) {
	store, err := New(t.TempDir(), datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	records := []tessRecord{
		{ID: 1, PlanetName: "TOI-700 d", PeriodDays: 37.42},
		{ID: 2, PlanetName: "TOI-270 b", PeriodDays: 3.36},
	}

	before := time.Now().Add(-time.Second)
	batch, err := store.Archive("TESS", records, len(records))
	if err != nil {
		t.Fatalf("Failed to archive batch: %v", err)
	}
	if batch.ID == "" {
		t.Error("Batch ID is empty")
	}
	if batch.Count != 2 {
		t.Errorf("Expected count 2, got %d", batch.Count)
	}

	got, err := store.Batches("TESS", before, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(got))
	}
	if got[0].ID != batch.ID {
		t.Errorf("Expected batch %s, got %s", batch.ID, got[0].ID)
	}

	var stored []tessRecord
	if err := json.Unmarshal(got[0].Records, &stored); err != nil {
		t.Fatalf("Failed to decode stored records: %v", err)
	}
	if len(stored) != 2 || stored[0] != records[0] || stored[1] != records[1] {
		t.Errorf("Stored records differ: %+v", stored)
	}
}

func TestArchive_UnknownDataset(t *testing.T) {
	store, err := New(t.TempDir(), datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.Archive("CoRoT", []int{1}, 1)
	if !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("Expected ErrUnknownDataset, got %v", err)
	}

	_, err = store.Batches("CoRoT", time.Unix(0, 0), time.Now())
	if !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("Expected ErrUnknownDataset, got %v", err)
	}
}

func TestBatches_TimeRangeAndOrder(t *testing.T) {
	store, err := New(t.TempDir(), datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	var ids []string
	for i := 0; i < 3; i++ {
		batch, err := store.Archive("Kepler", []int{i}, 1)
		if err != nil {
			t.Fatalf("Failed to archive batch %d: %v", i, err)
		}
		ids = append(ids, batch.ID)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := store.Batches("Kepler", time.Time{}, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(all))
	}
	for i, b := range all {
		if b.ID != ids[i] {
			t.Errorf("Batch %d: expected %s, got %s", i, ids[i], b.ID)
		}
	}

	none, err := store.Batches("Kepler", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no batches in future range, got %d", len(none))
	}

	other, err := store.Batches("K2", time.Time{}, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected K2 to be empty, got %d", len(other))
	}
}

func TestStats(t *testing.T) {
	store, err := New(t.TempDir(), datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	for i := 0; i < 2; i++ {
		if _, err := store.Archive("K2", []int{i}, 1); err != nil {
			t.Fatalf("Failed to archive: %v", err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats["K2"] != 2 || stats["TESS"] != 0 || stats["Kepler"] != 0 {
		t.Errorf("Unexpected stats: %v", stats)
	}
}

func TestReopenKeepsBatches(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir, datasets...)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := store.Archive("TESS", []int{1}, 1); err != nil {
		t.Fatalf("Failed to archive: %v", err)
	}
	store.Close()

	store, err = New(dir, datasets...)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats["TESS"] != 1 {
		t.Errorf("Expected 1 TESS batch after reopen, got %d", stats["TESS"])
	}
}
