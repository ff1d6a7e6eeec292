package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sort"
	"testing"
	"time"

	"bizmatch/internal/repository"

	"github.com/google/uuid"
)

type stubCustomerRepo struct {
	profiles map[uuid.UUID]repository.CustomerProfile
	err      error
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (repository.CustomerProfile, error) {
	if s.err != nil {
		return repository.CustomerProfile{}, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return repository.CustomerProfile{}, repository.ErrCustomerNotFound
	}
	return p, nil
}

type stubProgramRepo struct {
	facts     []repository.ProgramFactsRow
	listCalls int
}

func (s *stubProgramRepo) Upsert(ctx context.Context, _ repository.ProgramUpsert) error {
	return nil
}

func (s *stubProgramRepo) ListFacts(ctx context.Context) ([]repository.ProgramFactsRow, error) {
	s.listCalls++
	return s.facts, nil
}

func (s *stubProgramRepo) ListPrograms(ctx context.Context, _ repository.ProgramFilter) ([]repository.ProgramRow, error) {
	return nil, nil
}

type stubResultRepo struct {
	byCustomer map[uuid.UUID][]repository.MatchingResultUpsert
	replaces   int
}

func newStubResultRepo() *stubResultRepo {
	return &stubResultRepo{byCustomer: make(map[uuid.UUID][]repository.MatchingResultUpsert)}
}

func (s *stubResultRepo) ReplaceForCustomer(ctx context.Context, customerID uuid.UUID, results []repository.MatchingResultUpsert) error {
	s.replaces++
	s.byCustomer[customerID] = results
	return nil
}

func (s *stubResultRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, minScore, limit int) ([]repository.MatchingResultRow, error) {
	stored := s.byCustomer[customerID]
	out := make([]repository.MatchingResultRow, 0, len(stored))
	for _, m := range stored {
		if m.Score < minScore {
			continue
		}
		out = append(out, repository.MatchingResultRow{
			CustomerID:      customerID,
			ProgramID:       m.ProgramID,
			ProgramTitle:    "program " + m.ProgramID.String()[:8],
			Score:           m.Score,
			MatchedIndustry: m.MatchedIndustry,
			MatchedLocation: m.MatchedLocation,
			MatchedKeywords: m.MatchedKeywords,
			CreatedAt:       time.Now().UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubResultRepo) HasCurrent(ctx context.Context, customerID uuid.UUID) (bool, error) {
	return len(s.byCustomer[customerID]) > 0, nil
}

type stubCache struct {
	data     map[string][]byte
	locks    map[string]bool
	lockBusy bool
	gets     int
	hits     int
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte), locks: make(map[string]bool)}
}

func (s *stubCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	s.gets++
	b, ok := s.data[key]
	if !ok {
		return false, nil
	}
	s.hits++
	return true, json.Unmarshal(b, out)
}

func (s *stubCache) SetJSON(ctx context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = b
	return nil
}

func (s *stubCache) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	delete(s.locks, key)
	return nil
}

func (s *stubCache) SetIfNotExists(ctx context.Context, key string, _ string, _ time.Duration) (bool, error) {
	if s.lockBusy || s.locks[key] {
		return false, nil
	}
	s.locks[key] = true
	return true, nil
}

func factRow(audience, location []string, keywords []string, registered time.Time) repository.ProgramFactsRow {
	return repository.ProgramFactsRow{
		ID:             uuid.New(),
		TargetAudience: audience,
		TargetLocation: location,
		Keywords:       keywords,
		RegisteredAt:   registered,
	}
}

func newTestMatching(customers *stubCustomerRepo, programs *stubProgramRepo, results *stubResultRepo, cache MatchCache) *Matching {
	return NewMatchingUsecase(customers, programs, results, cache, log.New(io.Discard, "", 0), time.Second)
}

func TestMatchComputesAndPersists(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID, Industry: "IT", Location: "Seoul", PreferredKeywords: []string{"AI"}},
	}}
	now := time.Now().UTC()
	programs := &stubProgramRepo{facts: []repository.ProgramFactsRow{
		factRow([]string{"IT"}, []string{"Seoul"}, []string{"AI", "funding"}, now),
		factRow([]string{"Manufacturing"}, []string{"Busan"}, []string{"export"}, now),
	}}
	results := newStubResultRepo()
	cache := newStubCache()

	uc := newTestMatching(customers, programs, results, cache)
	items, err := uc.Match(context.Background(), customerID, MatchParams{MinScore: 30, MaxResults: 50})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (zero-score program never persisted)", len(items))
	}
	if items[0].Score != 85 {
		t.Errorf("Score = %d, want 85", items[0].Score)
	}
	if !items[0].MatchedIndustry || !items[0].MatchedLocation {
		t.Errorf("matched flags = %v/%v", items[0].MatchedIndustry, items[0].MatchedLocation)
	}
	if results.replaces != 1 {
		t.Errorf("ReplaceForCustomer calls = %d, want 1", results.replaces)
	}
}

func TestMatchSecondCallServedWithoutRecompute(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID, Industry: "IT", Location: "Seoul"},
	}}
	programs := &stubProgramRepo{facts: []repository.ProgramFactsRow{
		factRow([]string{"IT"}, []string{"Seoul"}, nil, time.Now().UTC()),
	}}
	results := newStubResultRepo()
	cache := newStubCache()

	uc := newTestMatching(customers, programs, results, cache)
	params := MatchParams{MinScore: 30, MaxResults: 50}

	if _, err := uc.Match(context.Background(), customerID, params); err != nil {
		t.Fatalf("first Match: %v", err)
	}
	first := programs.listCalls

	items, err := uc.Match(context.Background(), customerID, params)
	if err != nil {
		t.Fatalf("second Match: %v", err)
	}
	if programs.listCalls != first {
		t.Errorf("second call rescored the catalog: ListFacts %d -> %d", first, programs.listCalls)
	}
	if results.replaces != 1 {
		t.Errorf("ReplaceForCustomer calls = %d, want 1", results.replaces)
	}
	if len(items) != 1 || items[0].Score != 60 {
		t.Errorf("items = %+v", items)
	}
	if cache.hits == 0 {
		t.Error("expected a cache hit on the second call")
	}
}

func TestMatchForceRefreshRecomputes(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID, Industry: "IT"},
	}}
	programs := &stubProgramRepo{facts: []repository.ProgramFactsRow{
		factRow([]string{"IT"}, nil, nil, time.Now().UTC()),
	}}
	results := newStubResultRepo()

	uc := newTestMatching(customers, programs, results, newStubCache())
	params := MatchParams{MinScore: 0, MaxResults: 50}

	if _, err := uc.Match(context.Background(), customerID, params); err != nil {
		t.Fatalf("first Match: %v", err)
	}

	params.ForceRefresh = true
	if _, err := uc.Match(context.Background(), customerID, params); err != nil {
		t.Fatalf("refresh Match: %v", err)
	}
	if results.replaces != 2 {
		t.Errorf("ReplaceForCustomer calls = %d, want 2", results.replaces)
	}
}

func TestMatchMinScoreFiltersAtReadTime(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID, Industry: "IT", Location: "Seoul"},
	}}
	now := time.Now().UTC()
	programs := &stubProgramRepo{facts: []repository.ProgramFactsRow{
		factRow([]string{"IT"}, []string{"Seoul"}, nil, now), // 60
		factRow([]string{"IT"}, nil, nil, now),               // 30
	}}
	results := newStubResultRepo()

	uc := newTestMatching(customers, programs, results, newStubCache())
	items, err := uc.Match(context.Background(), customerID, MatchParams{MinScore: 50, MaxResults: 50})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if len(items) != 1 || items[0].Score != 60 {
		t.Errorf("items = %+v, want only the 60-point match", items)
	}
	// both positive scores were persisted regardless of the filter
	if got := len(results.byCustomer[customerID]); got != 2 {
		t.Errorf("persisted results = %d, want 2", got)
	}
}

func TestMatchLockContentionServesCurrentSet(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID, Industry: "IT"},
	}}
	programs := &stubProgramRepo{facts: []repository.ProgramFactsRow{
		factRow([]string{"IT"}, nil, nil, time.Now().UTC()),
	}}
	results := newStubResultRepo()
	results.byCustomer[customerID] = []repository.MatchingResultUpsert{
		{ProgramID: uuid.New(), Score: 30},
	}
	cache := newStubCache()
	cache.lockBusy = true

	uc := newTestMatching(customers, programs, results, cache)
	items, err := uc.Match(context.Background(), customerID, MatchParams{MinScore: 0, MaxResults: 50, ForceRefresh: true})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	if results.replaces != 0 {
		t.Errorf("recompute ran despite held lock: replaces = %d", results.replaces)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want the holder's current set", len(items))
	}
}

func TestMatchValidation(t *testing.T) {
	uc := newTestMatching(&stubCustomerRepo{}, &stubProgramRepo{}, newStubResultRepo(), nil)

	if _, err := uc.Match(context.Background(), uuid.Nil, MatchParams{MinScore: 30}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil customer: err = %v", err)
	}
	if _, err := uc.Match(context.Background(), uuid.New(), MatchParams{MinScore: 101}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("minScore 101: err = %v", err)
	}
	if _, err := uc.Match(context.Background(), uuid.New(), MatchParams{MinScore: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("minScore -1: err = %v", err)
	}
	if _, err := uc.Match(context.Background(), uuid.New(), MatchParams{MinScore: 30}); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("unknown customer: err = %v", err)
	}
}

func TestGetResultsNeverComputes(t *testing.T) {
	customerID := uuid.New()
	customers := &stubCustomerRepo{profiles: map[uuid.UUID]repository.CustomerProfile{
		customerID: {ID: customerID},
	}}
	programs := &stubProgramRepo{}
	results := newStubResultRepo()

	uc := newTestMatching(customers, programs, results, nil)
	items, err := uc.GetResults(context.Background(), customerID, 0, 10)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
	if programs.listCalls != 0 || results.replaces != 0 {
		t.Error("GetResults triggered computation")
	}

	if _, err := uc.GetResults(context.Background(), uuid.New(), 0, 10); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("unknown customer: err = %v", err)
	}
}
