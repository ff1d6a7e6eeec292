package app

import (
	"fmt"
	"strings"

	"bizmatch/internal/delivery/http/handler"
	"bizmatch/internal/delivery/http/middleware"
	"bizmatch/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New wires the HTTP surface on top of an already-built container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: c.Config.App.AppName,
	})

	errMw := middleware.NewErrorMiddleware()
	f.Use(errMw.Middleware())

	accessMw := middleware.NewAccessLogMiddleware(c.Logger)
	f.Use(accessMw.Middleware())

	syncAuth := middleware.NewSyncAuthMiddleware(c.Config.Sync.Secret)

	registry := routes.NewRegistry(
		handler.NewMatchHandler(c.MatchingUsecase),
		handler.NewProgramsHandler(c.ProgramUsecase),
		handler.NewSyncHandler(c.SyncUsecase),
		syncAuth.Middleware(),
	)
	registry.Register(f)

	return &App{Fiber: f, Container: c}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
