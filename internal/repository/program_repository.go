package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bizmatch/internal/database"

	"github.com/google/uuid"
)

// ProgramUpsert is one normalized listing ready for the catalog store.
type ProgramUpsert struct {
	DataSource     string
	ExternalID     string
	Title          string
	Description    string
	Category       string
	TargetAudience []string
	TargetLocation []string
	Keywords       []string
	BudgetRange    string
	Deadline       *time.Time
	SourceURL      string
	AttachmentURL  string
	RegisteredAt   time.Time
	StartDate      *time.Time
	EndDate        *time.Time
	RawData        json.RawMessage
}

// ProgramFactsRow carries the fields the matching engine scores against.
type ProgramFactsRow struct {
	ID             uuid.UUID
	TargetAudience []string
	TargetLocation []string
	Keywords       []string
	RegisteredAt   time.Time
}

type ProgramFilter struct {
	DataSource string
	Category   string
	Audience   string
	Location   string
	Keyword    string
	Limit      int
	Offset     int
}

type ProgramRow struct {
	ID             uuid.UUID
	DataSource     string
	ExternalID     string
	Title          string
	Description    string
	Category       string
	TargetAudience []string
	TargetLocation []string
	Keywords       []string
	BudgetRange    string
	Deadline       *time.Time
	SourceURL      string
	AttachmentURL  string
	RegisteredAt   time.Time
}

type ProgramRepository interface {
	Upsert(ctx context.Context, p ProgramUpsert) error
	ListFacts(ctx context.Context) ([]ProgramFactsRow, error)
	ListPrograms(ctx context.Context, f ProgramFilter) ([]ProgramRow, error)
}

type PostgresProgramRepository struct {
	db database.DB
}

func NewPostgresProgramRepository(db database.DB) *PostgresProgramRepository {
	return &PostgresProgramRepository{db: db}
}

// Upsert is keyed by (data_source, external_id): re-syncing the same external
// record overwrites mutable fields and keeps the generated id stable.
func (r *PostgresProgramRepository) Upsert(ctx context.Context, p ProgramUpsert) error {
	source := strings.TrimSpace(p.DataSource)
	externalID := strings.TrimSpace(p.ExternalID)
	if source == "" || externalID == "" {
		return fmt.Errorf("program upsert: empty data_source or external_id")
	}

	registeredAt := p.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO programs (
			id, data_source, external_id, title, description, category,
			target_audience, target_location, keywords, budget_range, deadline,
			source_url, attachment_url, registered_at, start_date, end_date, raw_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (data_source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			target_audience = EXCLUDED.target_audience,
			target_location = EXCLUDED.target_location,
			keywords = EXCLUDED.keywords,
			budget_range = EXCLUDED.budget_range,
			deadline = EXCLUDED.deadline,
			source_url = EXCLUDED.source_url,
			attachment_url = COALESCE(NULLIF(EXCLUDED.attachment_url, ''), programs.attachment_url),
			registered_at = EXCLUDED.registered_at,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			raw_data = EXCLUDED.raw_data,
			updated_at = now()`,
		uuid.New(),
		source,
		externalID,
		strings.TrimSpace(p.Title),
		p.Description,
		strings.TrimSpace(p.Category),
		emptyIfNil(p.TargetAudience),
		emptyIfNil(p.TargetLocation),
		emptyIfNil(p.Keywords),
		strings.TrimSpace(p.BudgetRange),
		p.Deadline,
		strings.TrimSpace(p.SourceURL),
		strings.TrimSpace(p.AttachmentURL),
		registeredAt,
		p.StartDate,
		p.EndDate,
		rawOrNull(p.RawData),
	)
	return err
}

func (r *PostgresProgramRepository) ListFacts(ctx context.Context) ([]ProgramFactsRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, target_audience, target_location, keywords, registered_at
		 FROM programs
		 ORDER BY registered_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProgramFactsRow, 0)
	for rows.Next() {
		var p ProgramFactsRow
		if err := rows.Scan(&p.ID, &p.TargetAudience, &p.TargetLocation, &p.Keywords, &p.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresProgramRepository) ListPrograms(ctx context.Context, f ProgramFilter) ([]ProgramRow, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	where := make([]string, 0, 5)
	args := make([]any, 0, 7)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(f.DataSource); s != "" {
		where = append(where, "data_source = "+arg(s))
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		where = append(where, "category = "+arg(s))
	}
	if s := strings.TrimSpace(f.Audience); s != "" {
		where = append(where, arg(s)+" = ANY(target_audience)")
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		where = append(where, arg(s)+" = ANY(target_location)")
	}
	if s := strings.TrimSpace(f.Keyword); s != "" {
		where = append(where, arg(s)+" = ANY(keywords)")
	}

	q := `SELECT id, data_source, external_id, title, COALESCE(description, ''),
			COALESCE(category, ''), target_audience, target_location, keywords,
			COALESCE(budget_range, ''), deadline, COALESCE(source_url, ''),
			COALESCE(attachment_url, ''), registered_at
		 FROM programs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY registered_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProgramRow, 0, limit)
	for rows.Next() {
		var p ProgramRow
		if err := rows.Scan(
			&p.ID, &p.DataSource, &p.ExternalID, &p.Title, &p.Description,
			&p.Category, &p.TargetAudience, &p.TargetLocation, &p.Keywords,
			&p.BudgetRange, &p.Deadline, &p.SourceURL, &p.AttachmentURL, &p.RegisteredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func rawOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
