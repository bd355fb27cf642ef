package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/api"
	"github.com/dvloznov/smsledger/internal/app"
	"github.com/dvloznov/smsledger/internal/config"
	"github.com/dvloznov/smsledger/internal/jobs"
	"github.com/dvloznov/smsledger/internal/jobs/inmemory"
	"github.com/dvloznov/smsledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	port := flag.Int("port", cfg.Server.Port, "HTTP server port (default server.port)")
	flag.Parse()

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()
	log := a.Log
	ctx = a.Context(ctx)

	store, err := a.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Worker.QueueSize, jobStore,
		inmemory.WithWorkers(cfg.Worker.Workers),
		inmemory.WithMaxRetries(cfg.Worker.MaxRetries),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewScanHandler(a.Pipeline, store, nil)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	handler := api.NewRouter(api.Deps{
		Ledger:     store,
		Publisher:  jobQueue,
		JobStore:   jobStore,
		WindowDays: cfg.Scan.WindowDays,
		Log:        log,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(*port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Str("store", cfg.Store.Kind).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// in-flight scans finish before the worker context is cancelled
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
