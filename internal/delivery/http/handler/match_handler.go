package handler

import (
	"errors"
	"strconv"
	"time"

	"bizmatch/internal/delivery/http/dto"
	"bizmatch/internal/delivery/http/middleware"
	"bizmatch/internal/pkg/response"
	"bizmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	grp := r.Group("/match")
	grp.Post("/", h.Match)
	grp.Get("/:customer_id", h.GetResults)
}

func (h *MatchHandler) Match(c fiber.Ctx) error {
	var req dto.MatchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid customerId", err)
	}

	params := usecase.MatchParams{
		MinScore:     usecase.DefaultMinScore,
		MaxResults:   usecase.DefaultMaxResults,
		ForceRefresh: req.ForceRefresh,
	}
	if req.MinScore != nil {
		params.MinScore = *req.MinScore
	}
	if req.MaxResults != nil {
		params.MaxResults = *req.MaxResults
	}

	items, err := h.uc.Match(c.Context(), customerID, params)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := toMatchResponses(items)
	return response.Success(c, fiber.StatusOK, out, &response.Metadata{Total: len(out)})
}

func (h *MatchHandler) GetResults(c fiber.Ctx) error {
	customerID, err := uuid.Parse(c.Params("customer_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid customerId", err)
	}

	limit, err := parseQueryIntStrict(c, "limit", usecase.DefaultMaxResults)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}
	minScore, err := parseQueryIntStrict(c, "minScore", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}

	items, err := h.uc.GetResults(c.Context(), customerID, minScore, limit)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := toMatchResponses(items)
	return response.Success(c, fiber.StatusOK, out, &response.Metadata{Total: len(out), Limit: limit})
}

func toMatchResponses(items []usecase.MatchItem) []dto.MatchResultResponse {
	out := make([]dto.MatchResultResponse, 0, len(items))
	for _, it := range items {
		created := ""
		if it.CreatedAt != nil && !it.CreatedAt.IsZero() {
			created = it.CreatedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, dto.MatchResultResponse{
			ProgramID:       it.ProgramID,
			ProgramTitle:    it.ProgramTitle,
			SourceURL:       it.SourceURL,
			Score:           it.Score,
			MatchedIndustry: it.MatchedIndustry,
			MatchedLocation: it.MatchedLocation,
			MatchedKeywords: it.MatchedKeywords,
			CreatedAt:       created,
		})
	}
	return out
}

func mapMatchingUsecaseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	case errors.Is(err, usecase.ErrCustomerNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Customer not found", err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}
