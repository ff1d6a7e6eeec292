package usecase

import (
	"context"

	"bizmatch/internal/repository"
	"bizmatch/internal/sync"
)

type syncRunner interface {
	SyncAll(ctx context.Context) (sync.Summary, error)
}

type SyncUsecase interface {
	RunAll(ctx context.Context) (sync.Summary, error)
	Status(ctx context.Context) ([]repository.SyncMetadata, error)
}

type Sync struct {
	runner syncRunner
	meta   repository.SyncMetadataRepository
}

func NewSyncUsecase(runner syncRunner, meta repository.SyncMetadataRepository) *Sync {
	return &Sync{runner: runner, meta: meta}
}

// RunAll triggers a full catalog sync. Per-source failures are reported in
// the summary; only orchestrator-level errors surface here.
func (u *Sync) RunAll(ctx context.Context) (sync.Summary, error) {
	return u.runner.SyncAll(ctx)
}

func (u *Sync) Status(ctx context.Context) ([]repository.SyncMetadata, error) {
	rows, err := u.meta.List(ctx)
	if err != nil {
		return nil, ErrInternal
	}
	return rows, nil
}
