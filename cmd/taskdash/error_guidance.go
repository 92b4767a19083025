package main

import (
	"context"
	"errors"
	"strings"

	"taskdash/internal/api"
	"taskdash/internal/dashboard"
	"taskdash/internal/models"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check backend health or increase TASKDASH_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		transportErr  *api.TransportError
		protocolErr   *api.ProtocolError
		serverErr     *api.ServerError
	)
	switch {
	case errors.As(err, &validationErr):
		if hint := validationHint(validationErr.Field); hint != "" {
			lines = append(lines, hint)
		}
	case errors.As(err, &notFoundErr):
		lines = append(lines, "hint: run `taskdash list --all` to see the available task and subtask ids.")
	case errors.As(err, &transportErr):
		lines = append(lines,
			"hint: ensure the backend is running at api_url (TASKDASH_BACKEND_URL).",
			"hint: set TASKDASH_DEMO_MODE=true to work against the local demo store instead.",
			"hint: you can increase TASKDASH_HTTP_TIMEOUT for slower environments.",
		)
	case errors.As(err, &protocolErr):
		lines = append(lines, "hint: verify api_url points to the task backend, not the dashboard itself.")
	case errors.As(err, &serverErr):
		if serverErr.IsServerFault() {
			lines = append(lines, "hint: backend returned an internal error; check backend logs for details.")
		}
	case errors.Is(err, dashboard.ErrNoDraft):
		lines = append(lines, "hint: open a dialog first (create, subtask, edit or import-jira).")
	}

	return uniqueLines(lines)
}

func validationHint(field string) string {
	switch field {
	case "task_id":
		return "hint: pass --task-id."
	case "sub_task_id":
		return "hint: pass --sub-task-id."
	case "repo_url":
		return "hint: pass --repo, or set it with `taskdash edit <key> --repo <url>`."
	case "jira_task_id":
		return "hint: pass the Jira issue key as the first argument."
	case "status":
		return "hint: status must be one of " + strings.Join(models.TaskStatusStrings(), ", ") + "."
	case "action":
		return "hint: action must be one of " + strings.Join(models.ActionStrings(), ", ") + " (auto is short for auto-develop)."
	case "update":
		return "hint: pass at least one of --description, --summary, --repo, --branch, --status, --prompt, --agent-summary."
	default:
		return ""
	}
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
