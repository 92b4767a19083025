package main

import (
	"github.com/spf13/cobra"

	"taskdash/internal/config"
	"taskdash/internal/models"
	"taskdash/internal/tree"
)

func newExpandCmd(cfg *config.Config, expand bool) *cobra.Command {
	use, short := "expand <task_id>", "Show a task's subtasks in list"
	if !expand {
		use, short = "collapse <task_id>", "Hide a task's subtasks in list"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  requireExactlyArgs(1, "task id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				if _, ok := tree.Find(sess.ctrl.Snapshot().Tasks, args[0]); !ok {
					return &models.NotFoundError{Kind: "task", ID: args[0]}
				}
				if err := sess.ctrl.SetExpanded(cmd.Context(), args[0], expand); err != nil {
					return err
				}
				return writeState(sess.ctrl.Snapshot(), false)
			})
		},
	}
}
