package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/issuesearch/common/otel"
	"basegraph.app/issuesearch/core/config"
	"basegraph.app/issuesearch/core/db"
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/backend/memory"
	"basegraph.app/issuesearch/internal/backend/typesense"
	"basegraph.app/issuesearch/internal/search"
	"basegraph.app/issuesearch/internal/store"
)

type app struct {
	cfg       config.Config
	loc       *time.Location
	index     *search.IssueIndex
	telemetry *otel.Telemetry
	closers   []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	loc, err := cfg.Search.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loc: loc}
	var fx *fixture
	if cfg.Search.FixturePath != "" {
		if fx, err = loadFixture(cfg.Search.FixturePath); err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "fixture loaded",
			"path", cfg.Search.FixturePath,
			"issues", len(fx.Issues),
			"grants", len(fx.Grants))
	}

	var b backend.Backend
	if fx != nil {
		b = memory.New(fx.Issues...)
	} else {
		b = typesense.New(typesense.NewSearcher(typesense.ClientConfig{
			URL:        cfg.Typesense.URL,
			APIKey:     cfg.Typesense.APIKey,
			Collection: cfg.Typesense.Collection,
			Timeout:    cfg.Typesense.Timeout,
		}), typesense.WithConcurrency(cfg.Typesense.Concurrency))
	}

	permissions, err := a.permissionStore(ctx, fx)
	if err != nil {
		_ = a.closeAll()
		return nil, err
	}
	views, err := a.viewStore(ctx, fx)
	if err != nil {
		_ = a.closeAll()
		return nil, err
	}

	a.index = search.NewIssueIndex(b, permissions, views, search.WithLocation(loc))
	return a, nil
}

func (a *app) permissionStore(ctx context.Context, fx *fixture) (store.PermissionStore, error) {
	if !a.cfg.DBEnabled() {
		if fx == nil {
			return nil, errors.New("DATABASE_URL is required unless SEARCH_FIXTURE_PATH is set")
		}
		return store.NewMemoryPermissionStore(fx.Grants...), nil
	}

	database, err := db.New(ctx, a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, func() error { database.Close(); return nil })
	slog.DebugContext(ctx, "database connected")
	return store.NewPermissionStore(database.Querier()), nil
}

func (a *app) viewStore(ctx context.Context, fx *fixture) (store.ViewStore, error) {
	if !a.cfg.Redis.Enabled() {
		var views map[string][]string
		if fx != nil {
			views = fx.Views
		}
		return store.NewMemoryViewStore(views), nil
	}

	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	slog.DebugContext(ctx, "redis connected")
	return store.NewRedisViewStore(client, a.cfg.Redis.ViewKeyPrefix), nil
}

func (a *app) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Close releases connections and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	err := a.closeAll()
	if a.telemetry != nil {
		err = errors.Join(err, a.telemetry.Shutdown(ctx))
		a.telemetry = nil
	}
	return err
}
