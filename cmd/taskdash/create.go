package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"taskdash/internal/config"
	"taskdash/internal/dashboard"
	"taskdash/internal/models"
	"taskdash/internal/tree"
)

type draftFlags struct {
	taskID       string
	subTaskID    string
	description  string
	summary      string
	repoURL      string
	baseBranch   string
	status       string
	prompt       string
	agentSummary string
}

func bindDraftFlags(cmd *cobra.Command, f *draftFlags) {
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.summary, "summary", "", "summary (shown as the title)")
	cmd.Flags().StringVar(&f.repoURL, "repo", "", "repository URL")
	cmd.Flags().StringVar(&f.baseBranch, "branch", "", "base branch")
	cmd.Flags().StringVar(&f.status, "status", "", "status ("+strings.Join(models.TaskStatusStrings(), "|")+")")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "agent prompt")
	cmd.Flags().StringVar(&f.agentSummary, "agent-summary", "", "agent summary (markdown)")
}

// patch holds only the flags set on the command line, so defaults from the
// opened draft survive.
func (f *draftFlags) patch(cmd *cobra.Command) dashboard.DraftPatch {
	var p dashboard.DraftPatch
	set := func(name string, value *string, dst **string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}
	set("task-id", &f.taskID, &p.TaskID)
	set("sub-task-id", &f.subTaskID, &p.SubTaskID)
	set("description", &f.description, &p.Description)
	set("summary", &f.summary, &p.Summary)
	set("repo", &f.repoURL, &p.RepoURL)
	set("branch", &f.baseBranch, &p.BaseBranch)
	set("prompt", &f.prompt, &p.Prompt)
	set("agent-summary", &f.agentSummary, &p.AgentSummary)
	if cmd.Flags().Changed("status") {
		status := models.TaskStatus(f.status)
		p.Status = &status
	}
	return p
}

// update is the record update the patch amounts to.
func (f *draftFlags) update(cmd *cobra.Command) models.UpdateTaskPayload {
	p := f.patch(cmd)
	return models.UpdateTaskPayload{
		Description:  p.Description,
		Summary:      p.Summary,
		RepoURL:      p.RepoURL,
		BaseBranch:   p.BaseBranch,
		Status:       p.Status,
		Prompt:       p.Prompt,
		AgentSummary: p.AgentSummary,
	}
}

// saveDraft applies patch to the open draft, saves it and prints the stored
// record (or the submitted draft when the record cannot be found).
func saveDraft(ctx context.Context, sess *session, patch dashboard.DraftPatch) error {
	if err := sess.ctrl.UpdateDraft(patch); err != nil {
		return err
	}
	draft := *sess.ctrl.Snapshot().Modal.Draft
	if err := sess.ctrl.Save(ctx); err != nil {
		return err
	}

	key := draft.SubTaskID
	if key == "" {
		key = draft.TaskID
	}
	if draft.JiraTaskID != "" && draft.TaskID == "" {
		key = draft.JiraTaskID
	}
	if rec, ok := tree.Lookup(sess.ctrl.Snapshot().Tasks, key); ok {
		return writeRecord(rec)
	}
	if structuredOutput {
		return writeStructured(draft)
	}
	return writePlain("%s\n", key)
}

func newCreateCmd(cfg *config.Config) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				sess.ctrl.OpenNewTask()
				return saveDraft(cmd.Context(), sess, flags.patch(cmd))
			})
		},
	}

	cmd.Flags().StringVar(&flags.taskID, "task-id", "", "task id (default TASK-nnn)")
	bindDraftFlags(cmd, flags)
	return cmd
}

func newSubtaskCmd(cfg *config.Config) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "subtask <task_id>",
		Short: "Add a subtask to a task",
		Args:  requireExactlyArgs(1, "parent task id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				if err := sess.ctrl.OpenAddSubtask(args[0]); err != nil {
					return err
				}
				return saveDraft(cmd.Context(), sess, flags.patch(cmd))
			})
		},
	}

	cmd.Flags().StringVar(&flags.subTaskID, "sub-task-id", "", "subtask id (default SUB-nnn)")
	bindDraftFlags(cmd, flags)
	return cmd
}

func newEditCmd(cfg *config.Config) *cobra.Command {
	flags := &draftFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task or subtask",
		Args:  requireKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.update(cmd).IsEmpty() {
				return &models.ValidationError{Field: "update", Message: "nothing to update"}
			}
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				if err := sess.ctrl.OpenEdit(args[0]); err != nil {
					return err
				}
				return saveDraft(cmd.Context(), sess, flags.patch(cmd))
			})
		},
	}

	bindDraftFlags(cmd, flags)
	return cmd
}

func newImportJiraCmd(cfg *config.Config) *cobra.Command {
	var repoURL, branch string

	cmd := &cobra.Command{
		Use:   "import-jira <jira_task_id>",
		Short: "Import a Jira issue as a task",
		Args:  requireExactlyArgs(1, "jira task id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				sess.ctrl.OpenJiraImport()
				jiraID := args[0]
				return saveDraft(cmd.Context(), sess, dashboard.DraftPatch{
					JiraTaskID: &jiraID,
					RepoURL:    &repoURL,
					BaseBranch: &branch,
				})
			})
		},
	}

	cmd.Flags().StringVar(&repoURL, "repo", "", "repository URL")
	cmd.Flags().StringVar(&branch, "branch", "", "branch (default main)")
	return cmd
}
