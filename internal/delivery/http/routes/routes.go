package routes

import (
	"bizmatch/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health   *handler.HealthHandler
	match    *handler.MatchHandler
	programs *handler.ProgramsHandler
	sync     *handler.SyncHandler
	syncAuth fiber.Handler
}

func NewRegistry(
	match *handler.MatchHandler,
	programs *handler.ProgramsHandler,
	sync *handler.SyncHandler,
	syncAuth fiber.Handler,
) *Registry {
	return &Registry{
		health:   handler.NewHealthHandler(),
		match:    match,
		programs: programs,
		sync:     sync,
		syncAuth: syncAuth,
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	v1 := app.Group("/api").Group("/v1")
	r.match.RegisterRoutes(v1)
	r.programs.RegisterRoutes(v1)
	r.sync.RegisterRoutes(v1, r.syncAuth)
}
