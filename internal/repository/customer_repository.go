package repository

import (
	"context"
	"database/sql"
	"errors"

	"bizmatch/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerProfile is read-only input for scoring; customer rows are owned by
// the surrounding CRUD application.
type CustomerProfile struct {
	ID                uuid.UUID
	CompanyName       string
	Industry          string
	Location          string
	PreferredKeywords []string
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (CustomerProfile, error)
}

type PostgresCustomerRepository struct {
	db database.DB
}

func NewPostgresCustomerRepository(db database.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (CustomerProfile, error) {
	if id == uuid.Nil {
		return CustomerProfile{}, ErrCustomerNotFound
	}

	var p CustomerProfile
	row := r.db.QueryRow(ctx,
		`SELECT id, company_name, COALESCE(industry, ''), COALESCE(location, ''), preferred_keywords
		 FROM customers WHERE id = $1`, id)
	if err := row.Scan(&p.ID, &p.CompanyName, &p.Industry, &p.Location, &p.PreferredKeywords); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return CustomerProfile{}, ErrCustomerNotFound
		}
		return CustomerProfile{}, err
	}
	return p, nil
}
