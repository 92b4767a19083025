package main

import (
	"github.com/spf13/cobra"

	"taskdash/internal/config"
)

func newShowCmd(cfg *config.Config) *cobra.Command {
	var parent bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task or subtask",
		Args:  requireKey,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				if err := sess.ctrl.OpenView(args[0]); err != nil {
					return err
				}
				if parent {
					if err := sess.ctrl.BackToParent(); err != nil {
						return err
					}
				}
				return writeRecord(*sess.ctrl.Snapshot().Modal.Viewing)
			})
		},
	}

	cmd.Flags().BoolVar(&parent, "parent", false, "show the parent task of a subtask")
	return cmd
}
