package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"taskdash/internal/config"
	"taskdash/internal/format"
	"taskdash/internal/store"
)

func newSeedCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Manage the demo store's records",
	}

	cmd.AddCommand(newSeedExportCmd(), newSeedResetCmd(cfg))
	return cmd
}

func newSeedExportCmd() *cobra.Command {
	var (
		dbPath     string
		formatName string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a demo seed from a backend tasks database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, structured, err := format.ForName(formatName)
			if err != nil {
				return err
			}
			if !structured {
				return fmt.Errorf("seed format must be json or yaml")
			}

			records, err := store.ExportSeed(cmd.Context(), dbPath)
			if err != nil {
				return err
			}

			var w io.Writer = stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := formatter.Write(w, records); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(os.Stderr, "wrote %d records to %s\n", len(records), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the backend SQLite database")
	cmd.Flags().StringVar(&formatName, "format", "json", "seed format: json or yaml")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newSeedResetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard demo changes; the next read reseeds the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			if sess.demo == nil {
				return errDemoOnly
			}
			if err := sess.demo.Reset(cmd.Context()); err != nil {
				return err
			}
			return writePlain("demo store reset\n")
		},
	}
}
