package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/classtable-engine/internal/repository"
	"github.com/noah-isme/classtable-engine/internal/scheduler"
	"github.com/noah-isme/classtable-engine/internal/service"
	"github.com/noah-isme/classtable-engine/pkg/cache"
	"github.com/noah-isme/classtable-engine/pkg/config"
	"github.com/noah-isme/classtable-engine/pkg/jobs"
	"github.com/noah-isme/classtable-engine/pkg/storage"
)

// app holds the process-wide dependencies every subcommand shares, wired
// once in main() before cobra dispatches to a RunE.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *sqlx.DB
	instances *repository.InstanceRepository
	solves    *service.SolveService
	metrics   *service.SolveMetrics
	exports   *service.ExportService
	queue     *jobs.Queue
	async     *service.AsyncSolveRunner
}

// instanceForExport reloads an instance's row-set for export rendering
// (class/subject/teacher/room names), separate from the Solve path so a
// CLI export doesn't need the solver to return denormalized names.
func (a *app) instanceForExport(ctx context.Context, instanceID string) (scheduler.Instance, error) {
	return a.instances.Load(ctx, instanceID)
}

var current *app

func buildApp(cfg *config.Config, logger *zap.Logger, db *sqlx.DB) *app {
	instances := repository.NewInstanceRepository(db)
	runs := repository.NewSolveRunRepository(db)
	metrics := service.NewSolveMetrics()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Sugar().Warnw("result cache disabled: redis unavailable", "error", err)
	}
	resultCache := service.NewResultCache(redisClient, logger)

	solves := service.NewSolveService(instances, runs, db, nil, logger, metrics, resultCache, service.SolveServiceConfig{
		ProposalTTL: cfg.Solver.ProposalTTL,
	})

	queueCfg := jobs.QueueConfig{
		Workers:    cfg.Jobs.WorkerConcurrency,
		MaxRetries: cfg.Jobs.WorkerRetries,
		Logger:     logger,
	}
	async := &service.AsyncSolveRunner{}
	queue := jobs.NewQueue("solves", func(ctx context.Context, job jobs.Job) error {
		return async.Handle(ctx, job)
	}, queueCfg)
	*async = *service.NewAsyncSolveRunner(solves, queue, logger)

	localStorage, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		logger.Sugar().Fatalw("failed to initialise export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)
	exports := service.NewExportService(localStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Export.SignedURLTTL,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		instances: instances,
		solves:    solves,
		metrics:   metrics,
		exports:   exports,
		queue:     queue,
		async:     async,
	}
}
