package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/app"
	"github.com/dvloznov/smsledger/internal/config"
	"github.com/dvloznov/smsledger/internal/jobs"
	"github.com/dvloznov/smsledger/internal/jobs/inmemory"
	"github.com/dvloznov/smsledger/internal/logger"
)

const pollInterval = 500 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	workerCtx, cancelWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorker()
	if err := jobQueue.Start(workerCtx, jobs.NewScanHandler(a.Pipeline, store, nil)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().
		Dur("interval", cfg.Worker.Interval).
		Int("window_days", cfg.Scan.WindowDays).
		Msg("Worker service started")

	if cfg.Worker.Interval <= 0 {
		runOnce(ctx, log, jobQueue, jobStore, cfg.Scan.WindowDays)
	} else {
		runPeriodic(ctx, log, jobQueue, cfg.Worker.Interval, cfg.Scan.WindowDays)
	}

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancelWorker()

	log.Info().Msg("Worker service exited")
}

func publish(ctx context.Context, log zerolog.Logger, q jobs.Publisher, windowDays int) *jobs.ScanJob {
	job := &jobs.ScanJob{WindowDays: windowDays}
	if err := q.PublishScan(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue scan")
		return nil
	}
	log.Info().Str("job_id", job.JobID).Msg("Enqueued scan")
	return job
}

// runPeriodic enqueues a scan now and then every interval until ctx ends.
func runPeriodic(ctx context.Context, log zerolog.Logger, q jobs.Publisher, interval time.Duration, windowDays int) {
	publish(ctx, log, q, windowDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish(ctx, log, q, windowDays)
		}
	}
}

// runOnce enqueues one scan and waits for it to finish, retries included.
func runOnce(ctx context.Context, log zerolog.Logger, q jobs.Publisher, store jobs.JobStore, windowDays int) {
	job := publish(ctx, log, q, windowDays)
	if job == nil {
		return
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := store.GetJob(ctx, job.JobID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to read job state")
				return
			}
			switch current.Status {
			case jobs.JobStatusCompleted:
				if r := current.Result; r != nil {
					log.Info().
						Str("run_id", r.RunID).
						Int("transactions", r.Transactions).
						Int("skipped", r.Skipped).
						Msg("Scan completed")
				}
				return
			case jobs.JobStatusFailed:
				log.Error().Str("error", current.Error).Msg("Scan failed")
				return
			}
		}
	}
}
