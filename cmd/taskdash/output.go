package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"taskdash/internal/dashboard"
	"taskdash/internal/format"
	"taskdash/internal/models"
)

var stdout io.Writer = os.Stdout

var (
	outputFormatter  format.Formatter
	structuredOutput bool
)

func setOutputFormat(name string) error {
	formatter, structured, err := format.ForName(name)
	if err != nil {
		return err
	}
	outputFormatter = formatter
	structuredOutput = structured
	return nil
}

func writeStructured(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

// writeState renders the tree, or the whole snapshot for structured output.
func writeState(state dashboard.State, all bool) error {
	if structuredOutput {
		return writeStructured(state)
	}
	return writePlain("%s", formatTree(state, all))
}

func writeRecord(rec models.TaskRecord) error {
	if structuredOutput {
		return writeStructured(rec)
	}
	return writePlain("%s\n", formatRecordDetail(rec))
}

// formatTree renders one line per root and, for expanded roots (or all of
// them), one indented line per subtask.
func formatTree(state dashboard.State, all bool) string {
	var b strings.Builder
	if state.Error != "" {
		fmt.Fprintf(&b, "! %s\n", state.Error)
	}
	if len(state.Tasks) == 0 {
		b.WriteString("no tasks\n")
		return b.String()
	}
	for _, node := range state.Tasks {
		open := all || state.IsExpanded(node)
		marker := "▸"
		switch {
		case len(node.Subtasks) == 0:
			marker = "•"
		case open:
			marker = "▾"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, formatRow(node.TaskRecord, len(node.Subtasks)))
		if !open {
			continue
		}
		for _, sub := range node.Subtasks {
			fmt.Fprintf(&b, "    └ %s\n", formatRow(sub, -1))
		}
	}
	return b.String()
}

// formatRow is "<key> [STATUS] title", with a subtask count for roots
// (subtasks < 0 omits it).
func formatRow(rec models.TaskRecord, subtasks int) string {
	line := fmt.Sprintf("%s [%s] %s", rec.Key(), rec.Status.Label(), rec.Title())
	if subtasks > 0 {
		line += fmt.Sprintf(" (%d subtasks)", subtasks)
	}
	return line
}

func formatRecordDetail(rec models.TaskRecord) string {
	lines := []string{
		fmt.Sprintf("task_id: %s", rec.TaskID),
	}
	if rec.SubTaskID != "" {
		lines = append(lines, fmt.Sprintf("sub_task_id: %s", rec.SubTaskID))
	}
	lines = append(lines,
		fmt.Sprintf("type: %s", rec.TaskType),
		fmt.Sprintf("status: %s (%s)", rec.Status.Label(), rec.Status.Tone()),
		fmt.Sprintf("title: %s", rec.Title()),
	)

	optional := []struct {
		name  string
		value string
	}{
		{"repo_url", rec.RepoURL},
		{"base_branch", rec.BaseBranch},
		{"description", rec.Description},
		{"prompt", rec.Prompt},
		{"agent_summary", rec.AgentSummary},
		{"created_at", rec.CreatedAt},
		{"updated_at", rec.UpdatedAt},
	}
	for _, field := range optional {
		if field.value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", field.name, field.value))
		}
	}
	if len(rec.AttachmentPath) > 0 {
		lines = append(lines, "attachments:")
		for _, att := range rec.AttachmentPath {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", att.Filename, att.Path))
		}
	}
	return strings.Join(lines, "\n")
}
