package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	if len(seed) != 3 {
		t.Fatalf("expected 3 seed records, got %d", len(seed))
	}
	seed[0].Summary = "mutated"
	if DefaultSeed()[0].Summary == "mutated" {
		t.Fatal("expected a fresh copy on every call")
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"id":7,"task_id":"A-1","task_type":"TASK","status":"PENDING"}]`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	records, err := LoadSeedFile(jsonPath)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(records) != 1 || records[0].ID != 7 || records[0].TaskID != "A-1" {
		t.Fatalf("unexpected json seed: %+v", records)
	}

	yamlPath := filepath.Join(dir, "seed.yaml")
	yamlBody := "- id: 9\n  task_id: B-1\n  sub_task_id: B-2\n  task_type: SUBTASK\n  status: READY\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	records, err = LoadSeedFile(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if len(records) != 1 || records[0].SubTaskID != "B-2" || records[0].Status != "READY" {
		t.Fatalf("unexpected yaml seed: %+v", records)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"id":1}`), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}
	if _, err := LoadSeedFile(badPath); err == nil {
		t.Fatal("expected error for non-list seed")
	}
}
