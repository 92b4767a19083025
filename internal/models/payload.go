package models

import "strings"

// CreateTaskPayload defines the fields accepted when creating a task.
type CreateTaskPayload struct {
	TaskID         string           `json:"task_id"`
	Description    string           `json:"description,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	RepoURL        string           `json:"repo_url,omitempty"`
	BaseBranch     string           `json:"base_branch,omitempty"`
	Status         TaskStatus       `json:"status,omitempty"`
	Prompt         string           `json:"prompt,omitempty"`
	AgentSummary   string           `json:"agent_summary,omitempty"`
	AttachmentPath []AttachmentPath `json:"attachment_path,omitempty"`
	AdditionalJSON map[string]any   `json:"additional_json,omitempty"`
}

// CreateSubTaskPayload defines the fields accepted when creating a subtask.
type CreateSubTaskPayload struct {
	CreateTaskPayload
	SubTaskID string `json:"sub_task_id"`
}

// UpdateTaskPayload is a partial update; nil fields are left unchanged.
// The identity fields are accepted on the wire but never applied.
type UpdateTaskPayload struct {
	TaskID         *string          `json:"task_id,omitempty"`
	SubTaskID      *string          `json:"sub_task_id,omitempty"`
	TaskType       *TaskType        `json:"task_type,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Summary        *string          `json:"summary,omitempty"`
	RepoURL        *string          `json:"repo_url,omitempty"`
	BaseBranch     *string          `json:"base_branch,omitempty"`
	Status         *TaskStatus      `json:"status,omitempty"`
	Prompt         *string          `json:"prompt,omitempty"`
	AgentSummary   *string          `json:"agent_summary,omitempty"`
	AttachmentPath []AttachmentPath `json:"attachment_path,omitempty"`
	AdditionalJSON map[string]any   `json:"additional_json,omitempty"`
}

// JiraImportPayload asks the backend to import an issue.
type JiraImportPayload struct {
	JiraTaskID string `json:"jira_task_id"`
	RepoURL    string `json:"repo_url"`
	Branch     string `json:"branch"`
}

// TaskRunPayload triggers one of the backend actions.
type TaskRunPayload struct {
	TaskID     string `json:"task_id"`
	RepoURL    string `json:"repo_url"`
	BaseBranch string `json:"base_branch,omitempty"`
}

// Ack is the opaque acknowledgement returned by action endpoints.
type Ack map[string]any

func (p CreateTaskPayload) Validate() error {
	if strings.TrimSpace(p.TaskID) == "" {
		return &ValidationError{Field: "task_id", Message: "task_id is required"}
	}
	return nil
}

func (p CreateSubTaskPayload) Validate() error {
	if err := p.CreateTaskPayload.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.SubTaskID) == "" {
		return &ValidationError{Field: "sub_task_id", Message: "sub_task_id is required"}
	}
	return nil
}

func (p JiraImportPayload) Validate() error {
	if strings.TrimSpace(p.JiraTaskID) == "" {
		return &ValidationError{Field: "jira_task_id", Message: "jira_task_id is required"}
	}
	return nil
}

func (p TaskRunPayload) Validate() error {
	if strings.TrimSpace(p.TaskID) == "" {
		return &ValidationError{Field: "task_id", Message: "task_id is required"}
	}
	if strings.TrimSpace(p.RepoURL) == "" {
		return &ValidationError{Field: "repo_url", Message: "Repository URL is required to run tasks."}
	}
	return nil
}

// WithoutIdentity returns a copy of p with the immutable identity fields
// cleared.
func (p UpdateTaskPayload) WithoutIdentity() UpdateTaskPayload {
	p.TaskID = nil
	p.SubTaskID = nil
	p.TaskType = nil
	return p
}

// Apply merges the non-nil fields of p into r. Identity fields and
// timestamps are left to the caller.
func (p UpdateTaskPayload) Apply(r TaskRecord) TaskRecord {
	out := r.Clone()
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	}
	if p.RepoURL != nil {
		out.RepoURL = *p.RepoURL
	}
	if p.BaseBranch != nil {
		out.BaseBranch = *p.BaseBranch
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Prompt != nil {
		out.Prompt = *p.Prompt
	}
	if p.AgentSummary != nil {
		out.AgentSummary = *p.AgentSummary
	}
	if p.AttachmentPath != nil {
		out.AttachmentPath = append([]AttachmentPath(nil), p.AttachmentPath...)
	}
	if p.AdditionalJSON != nil {
		out.AdditionalJSON = cloneMap(p.AdditionalJSON)
	}
	return out
}

// IsEmpty reports whether the update carries no mutable fields.
func (p UpdateTaskPayload) IsEmpty() bool {
	return p.Description == nil &&
		p.Summary == nil &&
		p.RepoURL == nil &&
		p.BaseBranch == nil &&
		p.Status == nil &&
		p.Prompt == nil &&
		p.AgentSummary == nil &&
		p.AttachmentPath == nil &&
		p.AdditionalJSON == nil
}
