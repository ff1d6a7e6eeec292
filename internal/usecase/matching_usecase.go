package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"bizmatch/internal/domain/matching"
	"bizmatch/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultMinScore   = 30
	DefaultMaxResults = 50
	maxResultsCeiling = 100
)

type MatchParams struct {
	MinScore     int
	MaxResults   int
	ForceRefresh bool
}

type MatchItem struct {
	ProgramID       uuid.UUID  `json:"programId"`
	ProgramTitle    string     `json:"programTitle"`
	SourceURL       string     `json:"sourceUrl,omitempty"`
	Score           int        `json:"score"`
	MatchedIndustry bool       `json:"matchedIndustry"`
	MatchedLocation bool       `json:"matchedLocation"`
	MatchedKeywords []string   `json:"matchedKeywords"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

type MatchingUsecase interface {
	Match(ctx context.Context, customerID uuid.UUID, params MatchParams) ([]MatchItem, error)
	GetResults(ctx context.Context, customerID uuid.UUID, minScore, limit int) ([]MatchItem, error)
}

type Matching struct {
	customers repository.CustomerRepository
	programs  repository.ProgramRepository
	results   repository.MatchingResultRepository
	cache     MatchCache
	logger    *log.Logger
	lockTTL   time.Duration
}

func NewMatchingUsecase(
	customers repository.CustomerRepository,
	programs repository.ProgramRepository,
	results repository.MatchingResultRepository,
	cache MatchCache,
	logger *log.Logger,
	lockTTL time.Duration,
) *Matching {
	if logger == nil {
		logger = log.Default()
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Matching{
		customers: customers,
		programs:  programs,
		results:   results,
		cache:     cache,
		logger:    logger,
		lockTTL:   lockTTL,
	}
}

// Match returns the customer's scored program list. Cache-first: with
// forceRefresh off an existing current result set is returned as-is; with it
// on the set is recomputed and replaced, guarded so concurrent requests for
// the same customer don't double-write.
func (u *Matching) Match(ctx context.Context, customerID uuid.UUID, params MatchParams) ([]MatchItem, error) {
	if customerID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	minScore := params.MinScore
	if minScore < 0 || minScore > 100 {
		return nil, ErrInvalidInput
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxResultsCeiling {
		maxResults = maxResultsCeiling
	}

	customer, err := u.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, ErrInternal
	}

	cacheKey := matchCacheKey(customerID, minScore, maxResults)

	if !params.ForceRefresh {
		if u.cache != nil {
			var cached []MatchItem
			if hit, err := u.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
				u.logger.Printf("[Match] Cache HIT: %s", cacheKey)
				return cached, nil
			}
		}

		has, err := u.results.HasCurrent(ctx, customerID)
		if err != nil {
			return nil, ErrInternal
		}
		if has {
			return u.readCurrent(ctx, customerID, minScore, maxResults, cacheKey)
		}
	}

	lockKey := matchLockKey(customerID)
	if u.cache != nil {
		ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", u.lockTTL)
		if err == nil && !ok {
			// another recompute is in flight for this customer; wait for it
			// to land and serve its result instead of double-writing
			jitter := time.Duration(time.Now().UnixNano()%201) * time.Millisecond
			time.Sleep(300*time.Millisecond + jitter)
			return u.readCurrent(ctx, customerID, minScore, maxResults, cacheKey)
		}
		if err == nil && ok {
			defer func() {
				_ = u.cache.Delete(ctx, lockKey)
			}()
		}
	}

	if err := u.recompute(ctx, customerID, customer); err != nil {
		return nil, err
	}
	return u.readCurrent(ctx, customerID, minScore, maxResults, cacheKey)
}

// GetResults reads the persisted result set; it never triggers computation.
func (u *Matching) GetResults(ctx context.Context, customerID uuid.UUID, minScore, limit int) ([]MatchItem, error) {
	if customerID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	if minScore < 0 || minScore > 100 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	if limit > maxResultsCeiling {
		limit = maxResultsCeiling
	}

	if _, err := u.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, ErrInternal
	}

	rows, err := u.results.FindByCustomer(ctx, customerID, minScore, limit)
	if err != nil {
		return nil, ErrInternal
	}
	return toMatchItems(rows), nil
}

// recompute scores the full catalog for one customer and atomically replaces
// the current result set. Everything with a positive score is persisted;
// minScore is a read-time filter.
func (u *Matching) recompute(ctx context.Context, customerID uuid.UUID, customer repository.CustomerProfile) error {
	facts, err := u.programs.ListFacts(ctx)
	if err != nil {
		return ErrInternal
	}

	profile := matching.CustomerProfile{
		Industry:          customer.Industry,
		Location:          customer.Location,
		PreferredKeywords: customer.PreferredKeywords,
	}

	type scored struct {
		upsert       repository.MatchingResultUpsert
		registeredAt time.Time
	}
	results := make([]scored, 0, len(facts))
	for _, p := range facts {
		s := matching.Calculate(profile, matching.ProgramFacts{
			TargetAudience: p.TargetAudience,
			TargetLocation: p.TargetLocation,
			Keywords:       p.Keywords,
			RegisteredAt:   p.RegisteredAt,
		})
		if s.Total <= 0 {
			continue
		}
		results = append(results, scored{
			upsert: repository.MatchingResultUpsert{
				ProgramID:       p.ID,
				Score:           s.Total,
				MatchedIndustry: s.MatchedIndustry,
				MatchedLocation: s.MatchedLocation,
				MatchedKeywords: s.MatchedKeywords,
			},
			registeredAt: p.RegisteredAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].upsert.Score != results[j].upsert.Score {
			return results[i].upsert.Score > results[j].upsert.Score
		}
		return results[i].registeredAt.After(results[j].registeredAt)
	})

	upserts := make([]repository.MatchingResultUpsert, 0, len(results))
	for _, r := range results {
		upserts = append(upserts, r.upsert)
	}

	if err := u.results.ReplaceForCustomer(ctx, customerID, upserts); err != nil {
		return ErrInternal
	}

	u.logger.Printf("[Match] Recomputed customer=%s programs=%d results=%d",
		customerID, len(facts), len(upserts))
	return nil
}

func (u *Matching) readCurrent(ctx context.Context, customerID uuid.UUID, minScore, limit int, cacheKey string) ([]MatchItem, error) {
	rows, err := u.results.FindByCustomer(ctx, customerID, minScore, limit)
	if err != nil {
		return nil, ErrInternal
	}
	items := toMatchItems(rows)
	if u.cache != nil {
		_ = u.cache.SetJSON(ctx, cacheKey, items, 0)
	}
	return items, nil
}

func toMatchItems(rows []repository.MatchingResultRow) []MatchItem {
	out := make([]MatchItem, 0, len(rows))
	for _, r := range rows {
		created := r.CreatedAt
		out = append(out, MatchItem{
			ProgramID:       r.ProgramID,
			ProgramTitle:    r.ProgramTitle,
			SourceURL:       r.SourceURL,
			Score:           r.Score,
			MatchedIndustry: r.MatchedIndustry,
			MatchedLocation: r.MatchedLocation,
			MatchedKeywords: r.MatchedKeywords,
			CreatedAt:       &created,
		})
	}
	return out
}

func matchCacheKey(customerID uuid.UUID, minScore, limit int) string {
	return fmt.Sprintf("match:result:%s:%d:%d", customerID, minScore, limit)
}

func matchLockKey(customerID uuid.UUID) string {
	return "match:lock:" + customerID.String()
}
