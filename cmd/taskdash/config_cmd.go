package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskdash/internal/config"
)

// configEntry is one effective setting. Source is only filled for log_level,
// the one key whose origin the loader tracks.
type configEntry struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change taskdash settings",
	}

	cmd.AddCommand(newConfigGetCmd(cfg))
	cmd.AddCommand(newConfigListCmd(cfg))
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func configEntryFor(cfg *config.Config, key string) (configEntry, error) {
	if !config.IsAllowedKey(key) {
		return configEntry{}, fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
	}
	value, err := cfg.Get(key)
	if err != nil {
		return configEntry{}, err
	}
	entry := configEntry{Key: key, Value: value}
	if key == "log_level" {
		entry.Source = cfg.LogLevelSource
	}
	return entry, nil
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  requireExactlyArgs(1, "config key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := configEntryFor(cfg, args[0])
			if err != nil {
				return err
			}
			if structuredOutput {
				return writeStructured(entry)
			}
			return writePlain("%s\n", entry.Value)
		},
	}
}

// newConfigListCmd prints every setting after files and env overrides,
// followed by the store the dashboard will use.
func newConfigListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]configEntry, 0, len(config.AllowedKeys()))
			for _, key := range config.AllowedKeys() {
				entry, err := configEntryFor(cfg, key)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			mode := "demo"
			if !cfg.IsDemo() {
				mode = "remote"
			}

			if structuredOutput {
				return writeStructured(struct {
					Mode     string        `json:"mode" yaml:"mode"`
					Settings []configEntry `json:"settings" yaml:"settings"`
				}{Mode: mode, Settings: entries})
			}
			for _, entry := range entries {
				line := fmt.Sprintf("%s = %q", entry.Key, entry.Value)
				if entry.Source != "" {
					line += "  # from " + entry.Source
				}
				if err := writePlain("%s\n", line); err != nil {
					return err
				}
			}
			return writePlain("mode: %s\n", mode)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the project or global config file",
		Args:  requireExactlyArgs(2, "config key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			pathFn := config.ProjectPath
			if global {
				pathFn = config.GlobalPath
			}
			path, err := pathFn()
			if err != nil {
				return err
			}
			if err := config.SetKey(path, key, value); err != nil {
				return err
			}
			if structuredOutput {
				return writeStructured(configEntry{Key: key, Value: value, Source: path})
			}
			return writePlain("%s written to %s\n", key, path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to the global config (~/.taskdash.toml)")
	return cmd
}
