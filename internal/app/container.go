package app

import (
	"context"
	"log"
	"time"

	"bizmatch/internal/config"
	"bizmatch/internal/connector"
	"bizmatch/internal/database"
	dbpostgres "bizmatch/internal/database/postgres"
	"bizmatch/internal/infrastructure/cache"
	"bizmatch/internal/pkg/retry"
	"bizmatch/internal/repository"
	"bizmatch/internal/sync"
	"bizmatch/internal/usecase"
)

// Container owns every long-lived dependency: the catalog store, the result
// cache, the registry connectors and the usecases built on top of them.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Logger *log.Logger

	Orchestrator *sync.Orchestrator

	SyncUsecase     usecase.SyncUsecase
	MatchingUsecase usecase.MatchingUsecase
	ProgramUsecase  usecase.ProgramListUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	programs := repository.NewPostgresProgramRepository(db)
	customers := repository.NewPostgresCustomerRepository(db)
	results := repository.NewPostgresMatchingResultRepository(db)
	meta := repository.NewPostgresSyncMetadataRepository(db)

	retryCfg := retry.Config{
		MaxRetries: cfg.Sync.MaxRetries,
		BaseDelay:  cfg.Sync.BaseDelay,
		MaxDelay:   cfg.Sync.MaxDelay,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Printf("[Sync] Retry %d in %s: %v", attempt, delay, err)
		},
	}

	connectors := []connector.Connector{
		connector.NewBizinfo(cfg.Sync.BizinfoBaseURL, cfg.Sync.BizinfoAPIKey, retryCfg),
		connector.NewKStartup(cfg.Sync.KStartupBaseURL, cfg.Sync.KStartupAPIKey, retryCfg),
		connector.NewSMES(cfg.Sync.SMESBaseURL, retryCfg),
		connector.NewSeoulBiz(cfg.Sync.SeoulBizFeedURL, retryCfg),
	}

	orch := sync.NewOrchestrator(connectors, programs, meta, db, redisCache, logger, cfg.Sync.Workers)

	return &Container{
		Config:          cfg,
		DB:              db,
		Cache:           redisCache,
		Logger:          logger,
		Orchestrator:    orch,
		SyncUsecase:     usecase.NewSyncUsecase(orch, meta),
		MatchingUsecase: usecase.NewMatchingUsecase(customers, programs, results, redisCache, logger, cfg.Matching.LockTTL),
		ProgramUsecase:  usecase.NewProgramListUsecase(programs),
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Orchestrator != nil {
		c.Orchestrator.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
