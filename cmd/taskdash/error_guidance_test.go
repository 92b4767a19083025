package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"taskdash/internal/api"
	"taskdash/internal/models"
)

func TestFormatCLIError_TransportGuidance(t *testing.T) {
	err := &api.TransportError{Method: "GET", URL: "http://localhost:8080/db/tasks", Err: errors.New("connection refused")}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure the backend is running at api_url (TASKDASH_BACKEND_URL).") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: set TASKDASH_DEMO_MODE=true to work against the local demo store instead.") {
		t.Fatalf("expected demo-mode guidance, got %v", lines)
	}
}

func TestFormatCLIError_TimeoutGuidance(t *testing.T) {
	err := fmt.Errorf("list tasks: %w", context.DeadlineExceeded)
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: request timed out; check backend health or increase TASKDASH_HTTP_TIMEOUT.") {
		t.Fatalf("expected timeout guidance, got %v", lines)
	}
}

func TestFormatCLIError_ProtocolGuidance(t *testing.T) {
	lines := formatCLIError(&api.ProtocolError{Status: 200, Body: "<html>"})
	if !containsLine(lines, "hint: verify api_url points to the task backend, not the dashboard itself.") {
		t.Fatalf("expected api-url guidance, got %v", lines)
	}
}

func TestFormatCLIError_ServerGuidance(t *testing.T) {
	lines := formatCLIError(&api.ServerError{Status: 500, Message: "boom"})
	if !containsLine(lines, "hint: backend returned an internal error; check backend logs for details.") {
		t.Fatalf("expected internal-error guidance, got %v", lines)
	}

	lines = formatCLIError(&api.ServerError{Status: 409, Message: "task exists"})
	if len(lines) != 1 || lines[0] != "task exists" {
		t.Fatalf("expected message only for client errors, got %v", lines)
	}
}

func TestFormatCLIError_ValidationGuidance(t *testing.T) {
	err := &models.ValidationError{Field: "repo_url", Message: "Repository URL is required to run tasks."}
	lines := formatCLIError(err)
	if lines[0] != "Repository URL is required to run tasks." {
		t.Fatalf("expected banner text first, got %v", lines)
	}
	if !containsLine(lines, "hint: pass --repo, or set it with `taskdash edit <key> --repo <url>`.") {
		t.Fatalf("expected repo guidance, got %v", lines)
	}
}

func TestFormatCLIError_EnumHints(t *testing.T) {
	lines := formatCLIError(&models.ValidationError{Field: "status", Message: "invalid status: ARCHIVED"})
	if !containsLine(lines, "hint: status must be one of PENDING, PLANNING, READY, QUEUED, IN_PROGRESS, REVIEWING, PULL_REQUEST, DONE, FAILURE.") {
		t.Fatalf("expected status guidance, got %v", lines)
	}
	lines = formatCLIError(&models.ValidationError{Field: "action", Message: "invalid action: deploy"})
	if !containsLine(lines, "hint: action must be one of plan, develop, auto-develop (auto is short for auto-develop).") {
		t.Fatalf("expected action guidance, got %v", lines)
	}
}

func TestFormatCLIError_Nil(t *testing.T) {
	if lines := formatCLIError(nil); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
