package repository

import (
	"context"
	"time"

	"bizmatch/internal/database"

	"github.com/google/uuid"
)

type MatchingResultUpsert struct {
	ProgramID       uuid.UUID
	Score           int
	MatchedIndustry bool
	MatchedLocation bool
	MatchedKeywords []string
}

type MatchingResultRow struct {
	CustomerID      uuid.UUID
	ProgramID       uuid.UUID
	ProgramTitle    string
	SourceURL       string
	Score           int
	MatchedIndustry bool
	MatchedLocation bool
	MatchedKeywords []string
	CreatedAt       time.Time
}

type MatchingResultRepository interface {
	// ReplaceForCustomer swaps the customer's current result set in one
	// transaction; a failed recompute leaves the previous set untouched.
	ReplaceForCustomer(ctx context.Context, customerID uuid.UUID, results []MatchingResultUpsert) error
	FindByCustomer(ctx context.Context, customerID uuid.UUID, minScore, limit int) ([]MatchingResultRow, error)
	HasCurrent(ctx context.Context, customerID uuid.UUID) (bool, error)
}

type PostgresMatchingResultRepository struct {
	db database.DB
}

func NewPostgresMatchingResultRepository(db database.DB) *PostgresMatchingResultRepository {
	return &PostgresMatchingResultRepository{db: db}
}

func (r *PostgresMatchingResultRepository) ReplaceForCustomer(ctx context.Context, customerID uuid.UUID, results []MatchingResultUpsert) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM matching_results WHERE customer_id = $1`, customerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, m := range results {
		if m.ProgramID == uuid.Nil {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO matching_results (
				id, customer_id, program_id, score,
				matched_industry, matched_location, matched_keywords, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			uuid.New(),
			customerID,
			m.ProgramID,
			m.Score,
			m.MatchedIndustry,
			m.MatchedLocation,
			emptyIfNil(m.MatchedKeywords),
			now,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresMatchingResultRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, minScore, limit int) ([]MatchingResultRow, error) {
	if minScore < 0 {
		minScore = 0
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT mr.customer_id, mr.program_id, COALESCE(p.title, ''), COALESCE(p.source_url, ''),
			mr.score, mr.matched_industry, mr.matched_location, mr.matched_keywords, mr.created_at
		 FROM matching_results mr
		 JOIN programs p ON p.id = mr.program_id
		 WHERE mr.customer_id = $1 AND mr.score >= $2
		 ORDER BY mr.score DESC, p.registered_at DESC
		 LIMIT $3`,
		customerID, minScore, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MatchingResultRow, 0, limit)
	for rows.Next() {
		var m MatchingResultRow
		if err := rows.Scan(
			&m.CustomerID, &m.ProgramID, &m.ProgramTitle, &m.SourceURL,
			&m.Score, &m.MatchedIndustry, &m.MatchedLocation, &m.MatchedKeywords, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMatchingResultRepository) HasCurrent(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM matching_results WHERE customer_id = $1)`, customerID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
