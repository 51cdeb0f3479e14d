// Package knowrouter assembles the hybrid knowledge routing engine:
// a heuristic classifier steers cheap queries to a single deterministic
// lookup and expensive ones through a model-selected tool fan-out, with
// every failure mode degrading to the deterministic path.
package knowrouter

import (
	"context"
	"fmt"

	"github.com/companionkit/knowrouter/catalog"
	"github.com/companionkit/knowrouter/classifier"
	"github.com/companionkit/knowrouter/common/httpx"
	"github.com/companionkit/knowrouter/common/logger"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/decider"
	"github.com/companionkit/knowrouter/embedding"
	"github.com/companionkit/knowrouter/fuser"
	"github.com/companionkit/knowrouter/llm"
	"github.com/companionkit/knowrouter/router"
	"github.com/companionkit/knowrouter/schema"
	"github.com/companionkit/knowrouter/store"
)

const Version = "1.0.0"

// Engine owns the store connections and the router built on top of
// them. One Engine serves many concurrent queries.
type Engine struct {
	cfgStore *config.Store
	router   *router.Router

	facts      *store.FactStore
	vector     *store.VectorStore
	timeseries *store.TimeseriesStore
	profiles   *store.ProfileStore
}

// NewEngine wires the engine from a validated configuration.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.SetLevelName(cfg.LogLevel)

	hc := httpx.NewFromConfig(cfg.HTTP)

	embed, err := embedding.New(cfg.Embedding, hc)
	if err != nil {
		return nil, err
	}

	facts, err := store.NewFactStore(cfg.Stores.Facts)
	if err != nil {
		return nil, err
	}
	vector, err := store.NewVectorStore(cfg.Stores.Vector, embed)
	if err != nil {
		facts.Close()
		return nil, err
	}
	timeseries := store.NewTimeseriesStore(cfg.Stores.Timeseries)
	closeStores := func() {
		facts.Close()
		vector.Close()
		timeseries.Close()
	}

	profiles, err := store.NewProfileStore(cfg.Stores.Profile)
	if err != nil {
		closeStores()
		return nil, err
	}

	cat, err := catalog.New(catalog.Adapters{
		Facts:    facts,
		Memory:   vector,
		Profiles: profiles,
		Trends:   timeseries,
	}, cfg.Router)
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("build tool catalog: %w", err)
	}

	var provider llm.Provider
	if cfg.Decider.Provider != "" {
		provider, err = llm.New(cfg.Decider)
		if err != nil {
			closeStores()
			return nil, err
		}
	} else {
		logger.Warnf("engine: no decider provider configured; intelligent path will select zero tools")
	}

	cfgStore := config.NewStore(cfg)
	e := &Engine{
		cfgStore:   cfgStore,
		facts:      facts,
		vector:     vector,
		timeseries: timeseries,
		profiles:   profiles,
	}
	e.router = router.New(
		cfgStore,
		classifier.New(cfg.Classifier),
		cat,
		decider.New(provider, cfg.Decider),
		fuser.New(cfg.Fuser),
	)
	return e, nil
}

// Route runs one query through the engine. It never returns an error:
// degraded outcomes carry Degraded=true instead.
func (e *Engine) Route(ctx context.Context, q schema.Query) schema.RoutingOutcome {
	return e.router.Route(ctx, q)
}

// WatchConfig hot-reloads tunables from the given file. Structural
// settings (store endpoints) still require a restart.
func (e *Engine) WatchConfig(path string) error {
	return e.cfgStore.Watch(path)
}

// Config exposes the active configuration snapshot.
func (e *Engine) Config() *config.Config {
	return e.cfgStore.Snapshot()
}

// Close tears down store connections and the config watcher.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{e.cfgStore, e.facts, e.vector, e.timeseries} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
