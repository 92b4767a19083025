package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskdash/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		output   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "taskdash",
		Short:         "Taskdash is a dashboard for tasks and subtasks run by a coding agent backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := logs.configure(logLevel, cfg)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return setOutputFormat(output)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newListCmd(cfg),
		newWatchCmd(cfg),
		newShowCmd(cfg),
		newCreateCmd(cfg),
		newSubtaskCmd(cfg),
		newEditCmd(cfg),
		newImportJiraCmd(cfg),
		newRunCmd(cfg),
		newExpandCmd(cfg, true),
		newExpandCmd(cfg, false),
		newSeedCmd(cfg),
		newConfigCmd(cfg),
		newServeCmd(cfg),
	)

	return cmd
}
