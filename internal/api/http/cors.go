package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bsc-kit/scorecard-api/internal/config"
)

var (
	corsMethods = strings.Join([]string{
		fiber.MethodGet,
		fiber.MethodPost,
		fiber.MethodPut,
		fiber.MethodDelete,
		fiber.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		fiber.HeaderContentType,
		fiber.HeaderAuthorization,
	}, ", ")
)

// CORSPolicy decorates every response with a fixed set of cross-origin
// headers and answers preflight requests itself.
type CORSPolicy struct {
	origin string
}

// NewCORSPolicy builds the policy for the configured origin.
func NewCORSPolicy(cfg config.CORSConfig) *CORSPolicy {
	return &CORSPolicy{origin: cfg.AllowedOrigin}
}

// Handler must be registered before any other middleware. Headers are
// applied after the chain returns, including on errors and panics.
func (p *CORSPolicy) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return p.Preflight(c)
		}
		defer p.apply(c)
		return c.Next()
	}
}

// Preflight answers an OPTIONS request with an empty 204.
func (p *CORSPolicy) Preflight(c *fiber.Ctx) error {
	p.apply(c)
	c.Response().ResetBody()
	c.Status(fiber.StatusNoContent)
	return nil
}

func (p *CORSPolicy) apply(c *fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, p.origin)
	c.Set(fiber.HeaderAccessControlAllowMethods, corsMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsHeaders)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
}
