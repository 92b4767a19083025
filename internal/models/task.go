package models

import "strings"

// AttachmentPath names one file attached to a task.
type AttachmentPath struct {
	Filename string `json:"filename" yaml:"filename"`
	Path     string `json:"path" yaml:"path"`
}

// TaskRecord is the unit of persistence shared by tasks and subtasks.
//
// A record with an empty SubTaskID is a top-level task. Timestamps are kept
// in whatever form the backend produced them.
type TaskRecord struct {
	ID             int64            `json:"id" yaml:"id"`
	TaskID         string           `json:"task_id" yaml:"task_id"`
	SubTaskID      string           `json:"sub_task_id,omitempty" yaml:"sub_task_id,omitempty"`
	TaskType       TaskType         `json:"task_type" yaml:"task_type"`
	Description    string           `json:"description,omitempty" yaml:"description,omitempty"`
	Summary        string           `json:"summary,omitempty" yaml:"summary,omitempty"`
	RepoURL        string           `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`
	BaseBranch     string           `json:"base_branch,omitempty" yaml:"base_branch,omitempty"`
	Status         TaskStatus       `json:"status" yaml:"status"`
	Prompt         string           `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	AgentSummary   string           `json:"agent_summary,omitempty" yaml:"agent_summary,omitempty"`
	AttachmentPath []AttachmentPath `json:"attachment_path,omitempty" yaml:"attachment_path,omitempty"`
	AdditionalJSON map[string]any   `json:"additional_json,omitempty" yaml:"additional_json,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt      string           `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TaskListResponse is the body of GET /db/tasks.
type TaskListResponse struct {
	Tasks []TaskRecord `json:"tasks"`
	Total int          `json:"total"`
	Skip  int          `json:"skip"`
	Limit *int         `json:"limit,omitempty"`
}

// IsTopLevel reports whether the record is a task rather than a subtask.
func (r TaskRecord) IsTopLevel() bool {
	return r.TaskType == TypeTask && r.SubTaskID == ""
}

// Key identifies the record for actions: the subtask id when present,
// otherwise the task id.
func (r TaskRecord) Key() string {
	if r.SubTaskID != "" {
		return r.SubTaskID
	}
	return r.TaskID
}

// Title is the one-line label shown for a record.
func (r TaskRecord) Title() string {
	if strings.TrimSpace(r.Summary) != "" {
		return r.Summary
	}
	if strings.TrimSpace(r.Description) != "" {
		return r.Description
	}
	return "Untitled task"
}

// ActionKey identifies one action button for one record.
func ActionKey(r TaskRecord, action Action) string {
	return r.Key() + "-" + string(action)
}

// Clone returns a deep copy so callers can mutate attachment and JSON
// fields without aliasing store state.
func (r TaskRecord) Clone() TaskRecord {
	out := r
	if r.AttachmentPath != nil {
		out.AttachmentPath = make([]AttachmentPath, len(r.AttachmentPath))
		copy(out.AttachmentPath, r.AttachmentPath)
	}
	if r.AdditionalJSON != nil {
		out.AdditionalJSON = cloneMap(r.AdditionalJSON)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = cloneMap(typed)
		case []any:
			items := make([]any, len(typed))
			copy(items, typed)
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
