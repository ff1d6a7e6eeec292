package handler

import (
	"errors"
	"time"

	"bizmatch/internal/delivery/http/dto"
	"bizmatch/internal/delivery/http/middleware"
	"bizmatch/internal/pkg/response"
	"bizmatch/internal/repository"
	"bizmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

const defaultProgramLimit = 20

type ProgramsHandler struct {
	uc usecase.ProgramListUsecase
}

func NewProgramsHandler(uc usecase.ProgramListUsecase) *ProgramsHandler {
	return &ProgramsHandler{uc: uc}
}

func (h *ProgramsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/programs", h.List)
}

func (h *ProgramsHandler) List(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", defaultProgramLimit)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
	}

	filter := repository.ProgramFilter{
		DataSource: c.Query("dataSource"),
		Category:   c.Query("category"),
		Audience:   c.Query("audience"),
		Location:   c.Query("location"),
		Keyword:    c.Query("keyword"),
		Limit:      limit,
		Offset:     offset,
	}

	rows, err := h.uc.ListPrograms(c.Context(), filter)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}

	out := make([]dto.ProgramResponse, 0, len(rows))
	for _, p := range rows {
		deadline := ""
		if p.Deadline != nil {
			deadline = p.Deadline.UTC().Format(time.RFC3339)
		}
		out = append(out, dto.ProgramResponse{
			ID:             p.ID,
			DataSource:     p.DataSource,
			Title:          p.Title,
			Description:    p.Description,
			Category:       p.Category,
			TargetAudience: p.TargetAudience,
			TargetLocation: p.TargetLocation,
			Keywords:       p.Keywords,
			BudgetRange:    p.BudgetRange,
			Deadline:       deadline,
			SourceURL:      p.SourceURL,
			AttachmentURL:  p.AttachmentURL,
			RegisteredAt:   p.RegisteredAt.UTC().Format(time.RFC3339),
		})
	}
	return response.Success(c, fiber.StatusOK, out, &response.Metadata{Total: len(out), Limit: limit})
}
