// Package app builds the pipeline, its message source and its store from
// config. The cli, api and worker commands share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/config"
	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/gcs"
	infraBQ "github.com/dvloznov/smsledger/internal/infra/bigquery"
	"github.com/dvloznov/smsledger/internal/infra/sqlite"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/parser"
	"github.com/dvloznov/smsledger/internal/pipeline"
	"github.com/dvloznov/smsledger/internal/source"
)

// Store is a pipeline.Store with the read and registry operations both
// backends provide.
type Store interface {
	pipeline.Store
	ListTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	ListDetectedAccounts(ctx context.Context) ([]domain.DetectedAccount, error)
	UpsertAccount(ctx context.Context, a domain.Account) error
	SeedCategories(ctx context.Context, refs []domain.CategoryRef) error
	Close() error
}

var (
	_ Store = (*sqlite.Repository)(nil)
	_ Store = (*infraBQ.Repository)(nil)
)

// App holds what a command needs to run scans.
type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Pipeline *pipeline.Pipeline
	Location *time.Location

	gcsClient *gcs.Client
}

// New validates cfg and builds the logger, source and pipeline. The store
// is opened separately with OpenStore since parse and detect need none.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app.New: invalid config: %w", err)
	}
	log, err := logger.Build(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	a := &App{Config: cfg, Log: log, Location: loc}

	src, err := a.newSource(ctx)
	if err != nil {
		return nil, err
	}
	a.Pipeline = pipeline.New(src,
		source.StaticGate{Granted: cfg.Scan.ReadAccessGranted},
		pipeline.WithCurrency(cfg.Scan.Currency),
	)
	return a, nil
}

func (a *App) newSource(ctx context.Context) (pipeline.MessageSource, error) {
	switch a.Config.Source.Kind {
	case config.SourceGCS:
		client, err := a.GCS(ctx)
		if err != nil {
			return nil, err
		}
		return source.NewGCSSource(client, a.Config.Source.GCSURI), nil
	default:
		return source.NewFileSource(a.Config.Source.Path), nil
	}
}

// GCS returns the shared storage client, creating it on first use.
func (a *App) GCS(ctx context.Context) (*gcs.Client, error) {
	if a.gcsClient != nil {
		return a.gcsClient, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.gcsClient = client
	return client, nil
}

// Context returns ctx carrying the app logger.
func (a *App) Context(ctx context.Context) context.Context {
	return logger.WithContext(ctx, a.Log)
}

// Window is the configured scan window ending now.
func (a *App) Window(now time.Time) pipeline.Window {
	return pipeline.LastDays(now.In(a.Location), a.Config.Scan.WindowDays)
}

// OpenStore opens the configured store and seeds the category registry.
// sqlite migrations are applied on open.
func (a *App) OpenStore(ctx context.Context) (Store, error) {
	var (
		store Store
		err   error
	)
	switch a.Config.Store.Kind {
	case config.StoreBigQuery:
		store, err = infraBQ.NewRepository(ctx, infraBQ.Config{
			ProjectID:       a.Config.Store.ProjectID,
			Dataset:         a.Config.Store.Dataset,
			CredentialsFile: a.Config.Store.CredentialsFile,
		})
	default:
		if dir := filepath.Dir(a.Config.Store.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("OpenStore: mkdir %s: %w", dir, err)
			}
		}
		store, err = sqlite.OpenRepository(a.Config.Store.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("OpenStore: %w", err)
	}

	if err := store.SeedCategories(ctx, parser.Categories()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("OpenStore: %w", err)
	}
	return store, nil
}

// Close releases the storage client, if one was created.
func (a *App) Close() error {
	var errs []error
	if a.gcsClient != nil {
		errs = append(errs, a.gcsClient.Close())
	}
	return errors.Join(errs...)
}
