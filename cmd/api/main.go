package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/zatgpt/zatgpt-backend/api/routes"
	"github.com/zatgpt/zatgpt-backend/internal/auth"
	"github.com/zatgpt/zatgpt-backend/internal/conversations"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/auth/session"
	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/db"
	"github.com/zatgpt/zatgpt-backend/pkg/instance"
	"github.com/zatgpt/zatgpt-backend/pkg/llm"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
	"github.com/zatgpt/zatgpt-backend/pkg/metrics"
	"github.com/zatgpt/zatgpt-backend/pkg/migrate"
	"github.com/zatgpt/zatgpt-backend/pkg/redis"
	"github.com/zatgpt/zatgpt-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// closer is a resource released when the server stops.
type closer struct {
	name  string
	close func() error
}

// closeAll releases resources in reverse order of acquisition and keeps going
// past failures.
func closeAll(resources ...closer) error {
	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		if err := resources[i].close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", resources[i].name, err))
		}
	}
	return multierr.Combine(errs...)
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var resources []closer
	defer func() {
		if closeErr := closeAll(resources...); closeErr != nil {
			logg.Error(context.Background(), "error releasing resources", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	resources = append(resources, closer{name: "database", close: dbClient.Close})
	if cfg.DB.IsSQLite() && !cfg.App.IsDev() {
		logg.Warn(ctx, "sqlite runs on one connection; a pending assistant reply blocks every other request")
	}

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	resources = append(resources, closer{name: "redis", close: redisClient.Close})

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	completer, err := llm.New(cfg.LLM, metrics.NewLLMMetrics(registry))
	if err != nil {
		return err
	}

	hasher := security.NewHasher(cfg.Password)
	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Hasher:         hasher,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{DB: dbClient, Hasher: hasher})
	if err != nil {
		return err
	}
	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{DB: dbClient, Hasher: hasher})
	if err != nil {
		return err
	}
	adminService, err := auth.NewAdminService(userRepo)
	if err != nil {
		return err
	}
	conversationService, err := conversations.NewService(conversations.ServiceParams{
		DB:        dbClient,
		Completer: completer,
		Config:    cfg.Conversation,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"llm_provider": cfg.LLM.Provider,
		"db_driver":    cfg.DB.Driver,
		"instance":     instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			Gatherer:             registry,
			HTTPMetrics:          metrics.NewHTTPMetrics(registry),
			AuthService:          authService,
			RegisterService:      registerService,
			AdminRegisterService: adminRegisterService,
			AdminService:         adminService,
			Conversations:        conversationService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
