package main

import (
	"github.com/spf13/cobra"

	"taskdash/internal/config"
	"taskdash/internal/models"
	"taskdash/internal/tree"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <plan|develop|auto> <id>",
		Short: "Trigger a backend action for a task or subtask",
		Args:  requireExactlyArgs(2, "action and task or subtask id are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := models.ParseAction(args[0])
			if err != nil {
				return &models.ValidationError{Field: "action", Message: err.Error()}
			}
			key := args[1]
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				if err := sess.ctrl.RunActionByKey(cmd.Context(), key, action); err != nil {
					return err
				}
				rec, ok := tree.Lookup(sess.ctrl.Snapshot().Tasks, key)
				if !ok {
					return &models.NotFoundError{Kind: "task", ID: key}
				}
				return writeRecord(rec)
			})
		},
	}
}
