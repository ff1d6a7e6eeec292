package handler

import (
	"time"

	"bizmatch/internal/delivery/http/dto"
	"bizmatch/internal/delivery/http/middleware"
	"bizmatch/internal/pkg/response"
	"bizmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SyncHandler struct {
	uc usecase.SyncUsecase
}

func NewSyncHandler(uc usecase.SyncUsecase) *SyncHandler {
	return &SyncHandler{uc: uc}
}

func (h *SyncHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	grp := r.Group("/sync", auth)
	grp.Get("/", h.TriggerSync)
	grp.Get("/status", h.Status)
}

// TriggerSync runs a full catalog sync. Per-source failures still produce a
// 200 with details so one flaky registry doesn't read as a total failure.
func (h *SyncHandler) TriggerSync(c fiber.Ctx) error {
	summary, err := h.uc.RunAll(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}
	return response.Success(c, fiber.StatusOK, summary, nil)
}

func (h *SyncHandler) Status(c fiber.Ctx) error {
	rows, err := h.uc.Status(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, err)
	}

	out := make([]dto.SyncStatusResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.SyncStatusResponse{
			DataSource:   m.DataSource,
			LastSyncedAt: m.LastSyncedAt.UTC().Format(time.RFC3339),
			SyncCount:    m.SyncCount,
			LastResult:   m.LastResult,
		})
	}
	return response.Success(c, fiber.StatusOK, out, &response.Metadata{Total: len(out)})
}
