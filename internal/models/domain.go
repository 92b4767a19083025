package models

import (
	"fmt"
	"strings"
)

// TaskStatus defines lifecycle states reported for tasks.
type TaskStatus string

const (
	StatusPending     TaskStatus = "PENDING"
	StatusPlanning    TaskStatus = "PLANNING"
	StatusReady       TaskStatus = "READY"
	StatusQueued      TaskStatus = "QUEUED"
	StatusInProgress  TaskStatus = "IN_PROGRESS"
	StatusReviewing   TaskStatus = "REVIEWING"
	StatusPullRequest TaskStatus = "PULL_REQUEST"
	StatusDone        TaskStatus = "DONE"
	StatusFailure     TaskStatus = "FAILURE"
)

// TaskType distinguishes top-level tasks from subtasks.
type TaskType string

const (
	TypeTask    TaskType = "TASK"
	TypeSubtask TaskType = "SUBTASK"
)

// Action names one of the backend-triggered operations.
type Action string

const (
	ActionPlan        Action = "plan"
	ActionDevelop     Action = "develop"
	ActionAutoDevelop Action = "auto-develop"
)

// Tone names the presentation colour family used for a status badge.
type Tone string

const (
	ToneEmerald Tone = "emerald"
	ToneBlue    Tone = "blue"
	ToneAmber   Tone = "amber"
	ToneRed     Tone = "red"
	ToneYellow  Tone = "yellow"
	ToneGreen   Tone = "green"
	ToneGray    Tone = "gray"
	ToneOrange  Tone = "orange"
	TonePink    Tone = "pink"
)

const DefaultBaseBranch = "main"

// orderedStatuses follows the usual lifecycle; no transition graph is enforced.
var orderedStatuses = []TaskStatus{
	StatusPending,
	StatusPlanning,
	StatusReady,
	StatusQueued,
	StatusInProgress,
	StatusReviewing,
	StatusPullRequest,
	StatusDone,
	StatusFailure,
}

var statusTones = map[TaskStatus]Tone{
	StatusDone:        ToneEmerald,
	StatusInProgress:  ToneBlue,
	StatusPending:     ToneAmber,
	StatusFailure:     ToneRed,
	StatusPlanning:    ToneYellow,
	StatusReady:       ToneGreen,
	StatusQueued:      ToneGray,
	StatusReviewing:   ToneOrange,
	StatusPullRequest: TonePink,
}

var validActions = []Action{ActionPlan, ActionDevelop, ActionAutoDevelop}

func IsValidTaskStatus(status TaskStatus) bool {
	_, ok := statusTones[status]
	return ok
}

func IsValidTaskType(taskType TaskType) bool {
	return taskType == TypeTask || taskType == TypeSubtask
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidTaskStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParseTaskType(raw string) (TaskType, error) {
	value := TaskType(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("type is required")
	}
	if !IsValidTaskType(value) {
		return "", fmt.Errorf("invalid type: %s", value)
	}
	return value, nil
}

// ParseAction accepts the action names plus the short aliases used on the
// command line ("auto" for auto-develop).
func ParseAction(raw string) (Action, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "auto" {
		value = string(ActionAutoDevelop)
	}
	for _, action := range validActions {
		if string(action) == value {
			return action, nil
		}
	}
	return "", fmt.Errorf("invalid action: %s (allowed: %s)", raw, strings.Join(ActionStrings(), ", "))
}

// Tone maps a status to its badge colour. Unknown statuses render gray.
func (s TaskStatus) Tone() Tone {
	if tone, ok := statusTones[TaskStatus(strings.ToUpper(string(s)))]; ok {
		return tone
	}
	return ToneGray
}

// Label is the human form of a status: the first underscore becomes a space.
func (s TaskStatus) Label() string {
	return strings.Replace(string(s), "_", " ", 1)
}

// Label is the button text for an action.
func (a Action) Label() string {
	switch a {
	case ActionPlan:
		return "Plan"
	case ActionDevelop:
		return "Develop"
	case ActionAutoDevelop:
		return "Auto"
	default:
		return string(a)
	}
}

func TaskStatusStrings() []string {
	out := make([]string, 0, len(orderedStatuses))
	for _, value := range orderedStatuses {
		out = append(out, string(value))
	}
	return out
}

func ActionStrings() []string {
	out := make([]string, 0, len(validActions))
	for _, value := range validActions {
		out = append(out, string(value))
	}
	return out
}
