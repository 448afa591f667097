package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bsc-kit/scorecard-api/internal/api/http/handlers"
	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Users      *handlers.UsersHandler
	Authorizer *auth.Authorizer
	AdminRole  domain.Role
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.Authorizer.Require(), cfg.Auth.Me)
	authGroup.Post("/logout", cfg.Authorizer.Require(), cfg.Auth.Logout)

	users := api.Group("/users", cfg.Authorizer.Require())
	users.Get("", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Authorizer.Require(cfg.AdminRole), cfg.Users.Update)
	users.Delete("/:id", cfg.Authorizer.Require(cfg.AdminRole), cfg.Users.Delete)
}
