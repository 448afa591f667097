package http

import (
	"github.com/gofiber/fiber/v2"
)

// ServerConfig gathers everything needed to assemble the Fiber app.
type ServerConfig struct {
	Name       string
	Middleware MiddlewareConfig
	Routes     RouteConfig
}

// NewServer builds the Fiber app with the global middleware chain and routes.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Middleware)
	RegisterRoutes(app, cfg.Routes)
	return app
}
