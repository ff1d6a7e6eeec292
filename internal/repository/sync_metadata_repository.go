package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizmatch/internal/database"
)

type SyncMetadata struct {
	DataSource   string
	LastSyncedAt time.Time
	SyncCount    int64
	LastResult   string
}

type SyncMetadataRepository interface {
	// RecordRun upserts the per-source row after each sync attempt, success
	// or failure, bumping sync_count so operators can see staleness.
	RecordRun(ctx context.Context, dataSource string, result string) error
	List(ctx context.Context) ([]SyncMetadata, error)
}

type PostgresSyncMetadataRepository struct {
	db database.DB
}

func NewPostgresSyncMetadataRepository(db database.DB) *PostgresSyncMetadataRepository {
	return &PostgresSyncMetadataRepository{db: db}
}

func (r *PostgresSyncMetadataRepository) RecordRun(ctx context.Context, dataSource string, result string) error {
	dataSource = strings.TrimSpace(dataSource)
	if dataSource == "" {
		return fmt.Errorf("sync metadata: empty data_source")
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO sync_metadata (data_source, last_synced_at, sync_count, last_result)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (data_source) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			sync_count = sync_metadata.sync_count + 1,
			last_result = EXCLUDED.last_result`,
		dataSource,
		time.Now().UTC(),
		strings.TrimSpace(result),
	)
	return err
}

func (r *PostgresSyncMetadataRepository) List(ctx context.Context) ([]SyncMetadata, error) {
	rows, err := r.db.Query(ctx,
		`SELECT data_source, last_synced_at, sync_count, COALESCE(last_result, '')
		 FROM sync_metadata
		 ORDER BY data_source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SyncMetadata, 0)
	for rows.Next() {
		var m SyncMetadata
		if err := rows.Scan(&m.DataSource, &m.LastSyncedAt, &m.SyncCount, &m.LastResult); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
