package main

import (
	"context"
	"errors"
	"fmt"

	"taskdash/internal/api"
	"taskdash/internal/config"
	"taskdash/internal/dashboard"
	"taskdash/internal/store"
)

var errDemoOnly = errors.New("this command only applies in demo mode (set demo_mode=true or TASKDASH_DEMO_MODE=true)")

// session is one CLI invocation's view-model plus the local state database
// behind it. The expanded set always lives locally; task records live in the
// demo slot or on the backend depending on demo_mode.
type session struct {
	ctrl  *dashboard.Controller
	state *store.Store
	demo  *store.DemoStore
}

func openSession(cfg *config.Config) (*session, error) {
	if cfg.StatePath == "" {
		return nil, fmt.Errorf("state_path is not configured")
	}
	state, err := store.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", cfg.StatePath, err)
	}

	records, demo, err := selectRecordStore(cfg, state)
	if err != nil {
		_ = state.Close()
		return nil, err
	}

	ctrl := dashboard.New(dashboard.Options{
		Store:        records,
		Expanded:     store.NewExpandedState(state),
		PollInterval: cfg.PollEvery(),
		Logger:       logs.root,
	})
	return &session{ctrl: ctrl, state: state, demo: demo}, nil
}

// selectRecordStore picks the record store once per process.
func selectRecordStore(cfg *config.Config, state *store.Store) (store.RecordStore, *store.DemoStore, error) {
	if cfg.IsDemo() {
		opts := store.DemoOptions{Logger: logs.root}
		if cfg.SeedPath != "" {
			seed, err := store.LoadSeedFile(cfg.SeedPath)
			if err != nil {
				return nil, nil, err
			}
			opts.Seed = seed
		}
		demo := store.NewDemoStore(state, opts)
		logs.component("cli").Debug("using demo store", "state", cfg.StatePath, "seed", cfg.SeedPath)
		return demo, demo, nil
	}

	baseURL, err := api.ResolveBaseURL(cfg.APIURL, cfg.Origin)
	if err != nil {
		return nil, nil, err
	}
	logs.component("cli").Debug("using backend", "url", baseURL)
	return api.NewClient(baseURL, api.Options{Timeout: cfg.Timeout(), Logger: logs.root}), nil, nil
}

func (s *session) Close() error {
	s.ctrl.Close()
	return s.state.Close()
}

// withSession opens a session, performs the first load and runs fn.
func withSession(ctx context.Context, cfg *config.Config, fn func(*session) error) error {
	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.ctrl.Init(ctx); err != nil {
		return err
	}
	return fn(sess)
}
