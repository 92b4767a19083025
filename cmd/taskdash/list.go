package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"taskdash/internal/config"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with their expanded subtasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(sess *session) error {
				return writeState(sess.ctrl.Snapshot(), all)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "expand every task")
	return cmd
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the task list and re-render on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, cfg, func(sess *session) error {
				changes, cancel := sess.ctrl.Subscribe()
				defer cancel()

				runCtx, stop := context.WithCancel(ctx)
				defer stop()
				go func() { _ = sess.ctrl.Run(runCtx) }()

				var lastVersion uint64
				render := func() error {
					state := sess.ctrl.Snapshot()
					if state.Version == lastVersion {
						return nil
					}
					lastVersion = state.Version
					if !structuredOutput {
						if err := writePlain("-- %s --\n", time.Now().Format(time.TimeOnly)); err != nil {
							return err
						}
					}
					return writeState(state, all)
				}

				if err := render(); err != nil {
					return err
				}
				for {
					select {
					case <-ctx.Done():
						return nil
					case _, ok := <-changes:
						if !ok {
							return nil
						}
						if err := render(); err != nil {
							return err
						}
					}
				}
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "expand every task")
	return cmd
}
