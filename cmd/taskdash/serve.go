package main

import (
	"github.com/spf13/cobra"

	"taskdash/internal/config"
	"taskdash/internal/web"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard state over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr := cfg.ListenAddr
			if listen != "" {
				addr = listen
			}
			if _, err := web.ListenAddr(addr); err != nil {
				return err
			}

			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			// A failed first load stays in the banner; polling retries it.
			if err := sess.ctrl.Init(ctx); err != nil {
				logs.component("cli").Warn("initial load failed", "error", err)
			}
			go func() { _ = sess.ctrl.Run(ctx) }()

			srv, err := web.New(web.Options{Addr: addr, Controller: sess.ctrl, Logger: logs.root})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default listen_addr)")
	return cmd
}
