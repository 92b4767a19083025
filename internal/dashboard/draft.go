package dashboard

import (
	"fmt"
	"strconv"

	"taskdash/internal/models"
	"taskdash/internal/tree"
)

// ModalMode is the kind of dialog currently open.
type ModalMode string

const (
	ModeNewTask    ModalMode = "new-task"
	ModeNewSubtask ModalMode = "new-subtask"
	ModeEdit       ModalMode = "edit"
	ModeJiraImport ModalMode = "jira-import"
	ModeView       ModalMode = "view"
)

// ParseModalMode validates a mode name.
func ParseModalMode(raw string) (ModalMode, error) {
	switch mode := ModalMode(raw); mode {
	case ModeNewTask, ModeNewSubtask, ModeEdit, ModeJiraImport, ModeView:
		return mode, nil
	default:
		return "", &models.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown modal mode %q", raw)}
	}
}

// Draft holds the form fields of a create, edit or import dialog.
type Draft struct {
	TaskID       string            `json:"task_id" yaml:"task_id"`
	SubTaskID    string            `json:"sub_task_id,omitempty" yaml:"sub_task_id,omitempty"`
	TaskType     models.TaskType   `json:"task_type" yaml:"task_type"`
	JiraTaskID   string            `json:"jira_task_id,omitempty" yaml:"jira_task_id,omitempty"`
	Description  string            `json:"description" yaml:"description"`
	Summary      string            `json:"summary" yaml:"summary"`
	RepoURL      string            `json:"repo_url" yaml:"repo_url"`
	BaseBranch   string            `json:"base_branch" yaml:"base_branch"`
	Status       models.TaskStatus `json:"status" yaml:"status"`
	Prompt       string            `json:"prompt" yaml:"prompt"`
	AgentSummary string            `json:"agent_summary" yaml:"agent_summary"`
}

// DraftPatch changes the non-nil fields of a Draft.
type DraftPatch struct {
	TaskID       *string            `json:"task_id,omitempty"`
	SubTaskID    *string            `json:"sub_task_id,omitempty"`
	JiraTaskID   *string            `json:"jira_task_id,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Summary      *string            `json:"summary,omitempty"`
	RepoURL      *string            `json:"repo_url,omitempty"`
	BaseBranch   *string            `json:"base_branch,omitempty"`
	Status       *models.TaskStatus `json:"status,omitempty"`
	Prompt       *string            `json:"prompt,omitempty"`
	AgentSummary *string            `json:"agent_summary,omitempty"`
}

// Modal is the open dialog. Draft is set for the form modes, Viewing for
// the view mode.
type Modal struct {
	Mode         ModalMode          `json:"mode" yaml:"mode"`
	Draft        *Draft             `json:"draft,omitempty" yaml:"draft,omitempty"`
	Viewing      *models.TaskRecord `json:"viewing,omitempty" yaml:"viewing,omitempty"`
	ParentTaskID string             `json:"parent_task_id,omitempty" yaml:"parent_task_id,omitempty"`
}

func (m *Modal) clone() *Modal {
	if m == nil {
		return nil
	}
	out := *m
	if m.Draft != nil {
		d := *m.Draft
		out.Draft = &d
	}
	if m.Viewing != nil {
		v := m.Viewing.Clone()
		out.Viewing = &v
	}
	return &out
}

func (p DraftPatch) apply(d *Draft) error {
	if p.Status != nil && *p.Status != "" {
		status, err := models.ParseTaskStatus(string(*p.Status))
		if err != nil {
			return &models.ValidationError{Field: "status", Message: err.Error()}
		}
		d.Status = status
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.TaskID, p.TaskID)
	set(&d.SubTaskID, p.SubTaskID)
	set(&d.JiraTaskID, p.JiraTaskID)
	set(&d.Description, p.Description)
	set(&d.Summary, p.Summary)
	set(&d.RepoURL, p.RepoURL)
	set(&d.BaseBranch, p.BaseBranch)
	set(&d.Prompt, p.Prompt)
	set(&d.AgentSummary, p.AgentSummary)
	return nil
}

func newTaskDraft(rootCount int) *Draft {
	return &Draft{
		TaskID:     fmt.Sprintf("TASK-%03d", rootCount+1),
		TaskType:   models.TypeTask,
		BaseBranch: models.DefaultBaseBranch,
		Status:     models.StatusPending,
	}
}

func newSubtaskDraft(parent tree.Node) *Draft {
	return &Draft{
		TaskID:    parent.TaskID,
		SubTaskID: fmt.Sprintf("SUB-%03d", len(parent.Subtasks)+1),
		TaskType:  models.TypeSubtask,
		Status:    models.StatusPending,
	}
}

func jiraImportDraft() *Draft {
	return &Draft{
		TaskType: models.TypeTask,
		Status:   models.StatusPending,
	}
}

func draftFromRecord(rec models.TaskRecord) *Draft {
	return &Draft{
		TaskID:       rec.TaskID,
		SubTaskID:    rec.SubTaskID,
		TaskType:     rec.TaskType,
		JiraTaskID:   rec.Key(),
		Description:  rec.Description,
		Summary:      rec.Summary,
		RepoURL:      rec.RepoURL,
		BaseBranch:   rec.BaseBranch,
		Status:       rec.Status,
		Prompt:       rec.Prompt,
		AgentSummary: rec.AgentSummary,
	}
}

func (d Draft) createPayload() models.CreateTaskPayload {
	return models.CreateTaskPayload{
		TaskID:       d.TaskID,
		Description:  d.Description,
		Summary:      d.Summary,
		RepoURL:      d.RepoURL,
		BaseBranch:   d.BaseBranch,
		Status:       d.Status,
		Prompt:       d.Prompt,
		AgentSummary: d.AgentSummary,
	}
}

// updatePayload always carries description, prompt and status; the other
// text fields only when non-empty.
func (d Draft) updatePayload() models.UpdateTaskPayload {
	description := d.Description
	prompt := d.Prompt
	payload := models.UpdateTaskPayload{
		Description:  &description,
		Prompt:       &prompt,
		Summary:      nonEmpty(d.Summary),
		RepoURL:      nonEmpty(d.RepoURL),
		BaseBranch:   nonEmpty(d.BaseBranch),
		AgentSummary: nonEmpty(d.AgentSummary),
	}
	if d.Status != "" {
		status := d.Status
		payload.Status = &status
	}
	return payload
}

func (d Draft) jiraPayload() models.JiraImportPayload {
	jiraID := d.JiraTaskID
	if jiraID == "" {
		jiraID = d.TaskID
	}
	branch := d.BaseBranch
	if branch == "" {
		branch = models.DefaultBaseBranch
	}
	return models.JiraImportPayload{JiraTaskID: jiraID, RepoURL: d.RepoURL, Branch: branch}
}

func nonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nodeIDKey(node tree.Node) string {
	return strconv.FormatInt(node.ID, 10)
}
