// Package sync runs the catalog refresh: it pulls raw listings from every
// configured source connector, normalizes them into canonical programs, and
// upserts them idempotently, isolating per-source failures.
package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	stdsync "sync"
	"time"

	"bizmatch/internal/connector"
	"bizmatch/internal/repository"
)

// MatchCacheKeyPattern covers every cached match response; a sync run that
// changed the catalog invalidates them all.
const MatchCacheKeyPattern = "match:result:*"

type SourceResult struct {
	DataSource   string `json:"dataSource"`
	Success      bool   `json:"success"`
	ProgramCount int    `json:"programCount"`
	Skipped      int    `json:"skipped,omitempty"`
	Error        string `json:"error,omitempty"`
	DurationMS   int64  `json:"durationMs"`
}

type Summary struct {
	Total        int            `json:"total"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	ProgramCount int            `json:"programCount"`
	Results      []SourceResult `json:"results"`
}

type storePinger interface {
	Ping(ctx context.Context) error
}

type matchCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type Orchestrator struct {
	connectors []connector.Connector
	programs   repository.ProgramRepository
	meta       repository.SyncMetadataRepository
	store      storePinger
	cache      matchCache
	logger     *log.Logger
	workers    int

	closeOnce stdsync.Once
}

func NewOrchestrator(
	connectors []connector.Connector,
	programs repository.ProgramRepository,
	meta repository.SyncMetadataRepository,
	store storePinger,
	cache matchCache,
	logger *log.Logger,
	workers int,
) *Orchestrator {
	if workers <= 0 || workers > len(connectors) {
		workers = len(connectors)
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		connectors: connectors,
		programs:   programs,
		meta:       meta,
		store:      store,
		cache:      cache,
		logger:     logger,
		workers:    workers,
	}
}

// SyncAll runs every connector through normalize and upsert. One source
// failing never aborts the run; only an unreachable catalog store does.
func (o *Orchestrator) SyncAll(ctx context.Context) (Summary, error) {
	if o.store != nil {
		if err := o.store.Ping(ctx); err != nil {
			return Summary{}, fmt.Errorf("catalog store unreachable: %w", err)
		}
	}

	o.logger.Printf("[Sync] Run started: %d source(s), %d worker(s)", len(o.connectors), o.workers)

	bySource := make(map[string]SourceResult, len(o.connectors))
	var mu stdsync.Mutex

	pool := newWorkerPool(o.workers, len(o.connectors))
	done := pool.Run(ctx)

	for _, conn := range o.connectors {
		conn := conn
		pool.Submit(func(ctx context.Context) error {
			res := o.syncSource(ctx, conn)
			mu.Lock()
			bySource[res.DataSource] = res
			mu.Unlock()
			return nil
		})
	}
	pool.Close()

	for range done {
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Results: make([]SourceResult, 0, len(o.connectors))}
	for _, conn := range o.connectors {
		res, ok := bySource[conn.Source()]
		if !ok {
			continue
		}
		summary.Total++
		summary.ProgramCount += res.ProgramCount
		if res.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
	}

	if summary.ProgramCount > 0 && o.cache != nil {
		if err := o.cache.DeleteByPattern(ctx, MatchCacheKeyPattern); err != nil {
			o.logger.Printf("[Sync] Match cache invalidation failed: %v", err)
		}
	}

	o.logger.Printf("[Sync] Run finished: succeeded=%d failed=%d programs=%d",
		summary.Succeeded, summary.Failed, summary.ProgramCount)

	return summary, nil
}

func (o *Orchestrator) syncSource(ctx context.Context, conn connector.Connector) (res SourceResult) {
	source := conn.Source()
	start := time.Now()
	res = SourceResult{DataSource: source}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.DurationMS = time.Since(start).Milliseconds()
		o.recordMetadata(ctx, res)
	}()

	raw, err := conn.Fetch(ctx)
	if err != nil {
		res.Error = err.Error()
		o.logger.Printf("[Sync] %s fetch failed: %v", source, err)
		return res
	}

	for _, rec := range raw {
		p, err := Normalize(source, rec)
		if err != nil {
			res.Skipped++
			o.logger.Printf("[Sync] %s record skipped: %v", source, err)
			continue
		}
		if err := o.programs.Upsert(ctx, p); err != nil {
			res.Error = fmt.Sprintf("upsert %s: %v", p.ExternalID, err)
			o.logger.Printf("[Sync] %s upsert failed: %v", source, err)
			return res
		}
		res.ProgramCount++
	}

	res.Success = true
	o.logger.Printf("[Sync] %s done: %d program(s), %d skipped", source, res.ProgramCount, res.Skipped)
	return res
}

func (o *Orchestrator) recordMetadata(ctx context.Context, res SourceResult) {
	if o.meta == nil {
		return
	}
	var outcome string
	if res.Success {
		outcome = fmt.Sprintf("ok: %d program(s) synced, %d skipped", res.ProgramCount, res.Skipped)
	} else {
		outcome = "failed: " + res.Error
	}
	if err := o.meta.RecordRun(ctx, res.DataSource, outcome); err != nil {
		o.logger.Printf("[Sync] %s metadata update failed: %v", res.DataSource, err)
	}
}

// Close releases connector resources. Safe to call exactly once per run
// lifecycle and idempotent beyond that.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		for _, conn := range o.connectors {
			if c, ok := conn.(io.Closer); ok {
				_ = c.Close()
			}
		}
	})
	return nil
}
