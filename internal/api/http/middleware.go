package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/observability"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

// MiddlewareConfig bundles what the global middleware chain needs.
type MiddlewareConfig struct {
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeout    time.Duration
	CORS       *CORSPolicy
	Authorizer *auth.Authorizer
}

// RegisterMiddlewares attaches global middlewares. CORS wraps everything so
// that error responses carry its headers too.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	if cfg.CORS != nil {
		app.Use(cfg.CORS.Handler())
	}
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics, callerID))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.Authorizer != nil {
		app.Use(cfg.Authorizer.Attach())
	}
}

func callerID(c *fiber.Ctx) (int64, bool) {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return 0, false
	}
	return claim.UserID, true
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(observability.RouteKey(c), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.StatusCode(fiberErr.Code, fiberErr.Message)
	}
	return apperrors.ToDomainError(err)
}
