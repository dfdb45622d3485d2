package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadops/enrich-cli/internal/config"
	"github.com/leadops/enrich-cli/internal/pipeline"
	"github.com/leadops/enrich-cli/internal/store"
)

// env holds the rule set, the pipeline and the store shared by the enrich,
// runs and serve commands.
type env struct {
	Rules    *config.RuleSet
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initRules loads the rule file named in config, falling back to defaults.
func initRules() (*config.RuleSet, error) {
	return config.LoadRules(cfg.Rules.Path)
}

// initEnv sets up rules, store and pipeline. Callers should defer e.Close().
func initEnv(ctx context.Context) (*env, error) {
	rules, err := initRules()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(rules, cfg.Batch.MaxConcurrentLeads)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{Rules: rules, Pipeline: p, Store: st}, nil
}
