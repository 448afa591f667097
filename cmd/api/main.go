package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/bsc-kit/scorecard-api/internal/api/http"
	"github.com/bsc-kit/scorecard-api/internal/api/http/handlers"
	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/config"
	"github.com/bsc-kit/scorecard-api/internal/domain"
	"github.com/bsc-kit/scorecard-api/internal/events"
	"github.com/bsc-kit/scorecard-api/internal/observability"
	"github.com/bsc-kit/scorecard-api/internal/persistence"
	"github.com/bsc-kit/scorecard-api/internal/repository"
	"github.com/bsc-kit/scorecard-api/internal/service"
	"github.com/bsc-kit/scorecard-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var userRepo repository.UserRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pg.PoolHandle())
	} else {
		userRepo = repository.NewMemoryUserRepository()
	}

	var (
		redis       *persistence.Redis
		denylist    repository.TokenDenylist
		revocations auth.RevocationChecker
	)
	if cfg.Auth.RevocationEnabled {
		switch cfg.Auth.RevocationStore {
		case config.RevocationStoreMemory:
			logger.Warn("token revocation kept in memory; revoked tokens are forgotten on restart")
			denylist = repository.NewMemoryTokenDenylist(nil)
		default:
			redis, err = persistence.NewRedis(ctx, cfg.Redis, logger)
			if err != nil {
				logger.Fatal("failed to connect redis", zap.Error(err))
			}
			defer redis.Close()
			denylist = repository.NewRedisTokenDenylist(redis.Client)
		}
		revocations = denylist
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Users:      userRepo,
		Tokens:     tokens,
		Denylist:   denylist,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(userRepo, dispatcher, authService)
	authorizer := auth.NewAuthorizer(tokens, revocations, logger)
	metrics := observability.NewMetrics()

	app := httptransport.NewServer(httptransport.ServerConfig{
		Name: cfg.App.Name,
		Middleware: httptransport.MiddlewareConfig{
			Logger:     logger,
			Metrics:    metrics,
			Timeout:    cfg.App.RequestTimeout(),
			CORS:       httptransport.NewCORSPolicy(cfg.CORS),
			Authorizer: authorizer,
		},
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
				"postgres": pg,
				"redis":    redis,
			}, metrics),
			Auth:       handlers.NewAuthHandler(authService),
			Users:      handlers.NewUsersHandler(userService),
			Authorizer: authorizer,
			AdminRole:  domain.Role(cfg.Auth.AdminRole),
		},
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("listening",
		zap.String("addr", cfg.App.Addr()),
		zap.Bool("postgres", pg.Enabled()),
		zap.Bool("revocation", cfg.Auth.RevocationEnabled),
	)

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
