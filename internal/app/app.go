// Package app assembles the services shared by the binaries from a loaded
// configuration.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/gcsuploader"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/money"
	"github.com/dvloznov/finance-insights/internal/notify"
	"github.com/dvloznov/finance-insights/internal/stats"
	"github.com/dvloznov/finance-insights/internal/store"
	"github.com/dvloznov/finance-insights/internal/store/inmemory"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Repo     store.Repository
	Currency money.Currency
	Stats    *stats.Service
	Notify   *notify.Service
}

// Open builds the repository selected by cfg and the services on top of it.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	repo, err := OpenRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	cur := money.New(cfg.Report.Currency)
	evaluator := notify.NewEvaluator(notify.DefaultRules(cur)...)

	return &App{
		Config:   cfg,
		Log:      log,
		Repo:     repo,
		Currency: cur,
		Stats:    stats.NewService(repo),
		Notify:   notify.NewService(repo, repo, evaluator, log),
	}, nil
}

// Close releases the repository.
func (a *App) Close() error {
	return a.Repo.Close()
}

// Users returns the users the scheduler evaluates: the configured list when
// set, otherwise every user with data in the repository.
func (a *App) Users() jobs.UserSource {
	if len(a.Config.Notifications.Users) > 0 {
		return jobs.StaticUsers(a.Config.Notifications.Users)
	}
	return a.Repo
}

// OpenRepository returns the backend named by cfg.Store.Backend.
func OpenRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Repository, error) {
	switch cfg.Store.Backend {
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.Store.ProjectID, cfg.Store.DatasetID)
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		log.Info().
			Str("project_id", cfg.Store.ProjectID).
			Str("dataset_id", cfg.Store.DatasetID).
			Msg("Using BigQuery store")
		return repo, nil

	case config.BackendMemory, "":
		mem := inmemory.NewStore()
		if err := loadSnapshot(ctx, mem, cfg.Store.SnapshotFile); err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		log.Info().Str("snapshot", cfg.Store.SnapshotFile).Msg("Using in-memory store")
		return mem, nil

	default:
		return nil, fmt.Errorf("OpenRepository: unknown store backend %q", cfg.Store.Backend)
	}
}

func loadSnapshot(ctx context.Context, mem *inmemory.Store, source string) error {
	switch {
	case source == "":
		return nil
	case gcsuploader.IsURI(source):
		data, err := gcsuploader.FetchFromGCS(ctx, source)
		if err != nil {
			return err
		}
		return mem.LoadSnapshotJSON(data)
	default:
		return mem.LoadSnapshot(source)
	}
}
