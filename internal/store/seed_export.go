package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"taskdash/internal/models"
)

const exportQuery = "SELECT * FROM tasks ORDER BY id DESC"

// ExportSeed reads the tasks table of a backend SQLite database and returns
// the rows as records, newest first. The database is opened read-only.
func ExportSeed(ctx context.Context, path string) ([]models.TaskRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, exportQuery)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []models.TaskRecord{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, name := range columns {
			row[strings.ToLower(name)] = values[i]
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func recordFromRow(row map[string]any) (models.TaskRecord, error) {
	id, err := asInt64(row["id"])
	if err != nil {
		return models.TaskRecord{}, fmt.Errorf("task id: %w", err)
	}
	rec := models.TaskRecord{
		ID:           id,
		TaskID:       asString(row["task_id"]),
		SubTaskID:    asString(row["sub_task_id"]),
		TaskType:     taskTypeFromColumn(row["task_type"], asString(row["sub_task_id"])),
		Description:  asString(row["description"]),
		Summary:      asString(row["summary"]),
		RepoURL:      asString(row["repo_url"]),
		BaseBranch:   asString(row["base_branch"]),
		Status:       models.TaskStatus(asString(row["status"])),
		Prompt:       asString(row["prompt"]),
		AgentSummary: asString(row["agent_summary"]),
		CreatedAt:    asString(row["created_at"]),
		UpdatedAt:    asString(row["updated_at"]),
	}
	rec.AttachmentPath = attachmentsFromColumn(row["attachment_path"])
	rec.AdditionalJSON = objectFromColumn(row["additional_json"])
	return rec, nil
}

// taskTypeFromColumn accepts the type in any case. A blank column is inferred
// from sub_task_id; an unknown value is kept as stored.
func taskTypeFromColumn(v any, subTaskID string) models.TaskType {
	raw := asString(v)
	if parsed, err := models.ParseTaskType(raw); err == nil {
		return parsed
	}
	if strings.TrimSpace(raw) != "" {
		return models.TaskType(raw)
	}
	if subTaskID != "" {
		return models.TypeSubtask
	}
	return models.TypeTask
}

// normalizeJSONField decodes JSON stored in a text column. Blank and "null"
// become nil; text that looks like an object or array is parsed; anything
// else is returned unchanged.
func normalizeJSONField(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		if b, isBytes := v.([]byte); isBytes {
			s = string(b)
		} else {
			return v
		}
	}
	if s == "null" {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return parsed
		}
	}
	return s
}

// attachmentsFromColumn keeps a bare path string as a single attachment.
func attachmentsFromColumn(v any) []models.AttachmentPath {
	switch typed := normalizeJSONField(v).(type) {
	case nil:
		return nil
	case string:
		return []models.AttachmentPath{{Filename: filepath.Base(typed), Path: typed}}
	case []any:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil
		}
		var out []models.AttachmentPath
		if err := json.Unmarshal(data, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

// objectFromColumn keeps non-object JSON under a "raw" key.
func objectFromColumn(v any) map[string]any {
	switch typed := normalizeJSONField(v).(type) {
	case nil:
		return nil
	case map[string]any:
		return typed
	default:
		return map[string]any{"raw": typed}
	}
}

func asString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}

func asInt64(v any) (int64, error) {
	switch typed := v.(type) {
	case int64:
		return typed, nil
	case float64:
		return int64(typed), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(typed)), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported id value %v", v)
	}
}
