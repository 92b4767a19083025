package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"taskdash/internal/models"
)

func writeBackendDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open backend db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE tasks (
			id INTEGER PRIMARY KEY,
			task_id TEXT NOT NULL,
			sub_task_id TEXT,
			task_type TEXT NOT NULL,
			repo_url TEXT,
			base_branch TEXT,
			status TEXT,
			summary TEXT,
			description TEXT,
			attachment_path TEXT,
			prompt TEXT,
			agent_summary TEXT,
			additional_json TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`INSERT INTO tasks (id, task_id, sub_task_id, task_type, status, summary, attachment_path, additional_json, created_at, updated_at)
		 VALUES (1, 'KAN-1', NULL, 'TASK', 'DONE', 'parent', '[{"filename":"a.txt","path":"/tmp/a.txt"}]', '{"priority":"high"}', '2025-12-14 14:13:11', '2025-12-14 14:13:11')`,
		`INSERT INTO tasks (id, task_id, sub_task_id, task_type, status, summary, attachment_path, additional_json)
		 VALUES (2, 'KAN-1', 'KAN-2', 'SUBTASK', 'PENDING', 'child', '/tmp/report.json', '[1,2]')`,
		`INSERT INTO tasks (id, task_id, sub_task_id, task_type, status, attachment_path, additional_json)
		 VALUES (3, 'KAN-3', NULL, 'TASK', 'FAILURE', 'null', '   ')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed backend db: %v", err)
		}
	}
	return path
}

func TestExportSeed(t *testing.T) {
	path := writeBackendDB(t)

	records, err := ExportSeed(context.Background(), path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != 3 || records[2].ID != 1 {
		t.Fatalf("expected id DESC order, got %d..%d", records[0].ID, records[2].ID)
	}

	parent := records[2]
	if len(parent.AttachmentPath) != 1 || parent.AttachmentPath[0].Filename != "a.txt" {
		t.Fatalf("unexpected attachments: %+v", parent.AttachmentPath)
	}
	if parent.AdditionalJSON["priority"] != "high" {
		t.Fatalf("unexpected additional_json: %+v", parent.AdditionalJSON)
	}
	if parent.SubTaskID != "" {
		t.Fatalf("expected NULL sub_task_id to be empty, got %q", parent.SubTaskID)
	}

	child := records[1]
	if len(child.AttachmentPath) != 1 || child.AttachmentPath[0].Filename != "report.json" || child.AttachmentPath[0].Path != "/tmp/report.json" {
		t.Fatalf("expected bare path to become one attachment, got %+v", child.AttachmentPath)
	}
	raw, ok := child.AdditionalJSON["raw"].([]any)
	if !ok || len(raw) != 2 {
		t.Fatalf("expected array kept under raw, got %+v", child.AdditionalJSON)
	}

	empty := records[0]
	if empty.AttachmentPath != nil || empty.AdditionalJSON != nil {
		t.Fatalf("expected null-like columns to be empty, got %+v", empty)
	}
}

func TestExportSeedNormalizesTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stmts := []string{
		`CREATE TABLE tasks (id INTEGER PRIMARY KEY, task_id TEXT, sub_task_id TEXT, task_type TEXT)`,
		`INSERT INTO tasks VALUES (1, 'KAN-1', NULL, NULL)`,
		`INSERT INTO tasks VALUES (2, 'KAN-1', 'KAN-2', '')`,
		`INSERT INTO tasks VALUES (3, 'KAN-1', 'KAN-3', 'subtask')`,
		`INSERT INTO tasks VALUES (4, 'KAN-4', NULL, 'epic')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	records, err := ExportSeed(context.Background(), path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := map[int64]models.TaskType{
		1: models.TypeTask,
		2: models.TypeSubtask,
		3: models.TypeSubtask,
		4: models.TaskType("epic"),
	}
	for _, rec := range records {
		if rec.TaskType != want[rec.ID] {
			t.Fatalf("record %d: expected type %q, got %q", rec.ID, want[rec.ID], rec.TaskType)
		}
	}
}

func TestExportSeedMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE other (id INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	if _, err := ExportSeed(context.Background(), path); err == nil {
		t.Fatal("expected error without a tasks table")
	}
	if _, err := ExportSeed(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
