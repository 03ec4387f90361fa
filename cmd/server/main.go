// Command server runs the task system HTTP API.
//
//	@title						Task System API
//	@version					1.0
//	@description				Role-based task management: registration, login, task assignment and personal notes.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/taskdesk/task-system/internal/api"
	"github.com/taskdesk/task-system/internal/core/password"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/core/service"
	"github.com/taskdesk/task-system/internal/core/token"
	"github.com/taskdesk/task-system/internal/infrastructure/telemetry"
	"github.com/taskdesk/task-system/internal/pkg/config"
	"github.com/taskdesk/task-system/pkg/logger"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.ForEnv(cfg.IsProduction(), cfg.LogLevel, cfg.Tracing.ServiceName))
	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	issuer, err := token.NewIssuer(token.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})
	if err != nil {
		return err
	}

	lockoutPolicy := ports.LockoutPolicy{
		MaxFailedAttempts: cfg.Lockout.MaxAttempts,
		Duration:          cfg.Lockout.Duration,
	}
	b, err := openBackend(ctx, cfg, lockoutPolicy, log)
	if err != nil {
		return err
	}
	defer b.close()

	credentials := service.NewCredentialStore(
		b.identities,
		passwordPolicy(cfg.Password),
		password.NewHasher(cfg.Password.BcryptCost),
		b.lockout,
		log,
	)

	if cfg.Admin.Seed {
		if err := service.SeedAdmin(ctx, credentials, service.AdminAccount{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}, log); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		AuthService:        service.NewAuthService(credentials, issuer, log),
		TaskService:        service.NewTaskService(b.tasks, credentials, log),
		NoteService:        service.NewNoteService(b.notes, log),
		Tokens:             issuer,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Probes:             b.probes,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Driver).Str("lockout", cfg.Lockout.Backend).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func passwordPolicy(cfg config.PasswordConfig) password.Policy {
	return password.Policy{
		MinLength:              cfg.MinLength,
		RequireDigit:           cfg.RequireDigit,
		RequireUppercase:       cfg.RequireUppercase,
		RequireLowercase:       cfg.RequireLowercase,
		RequireNonAlphanumeric: cfg.RequireNonAlphanumeric,
		RequiredUniqueChars:    cfg.RequiredUniqueChars,
	}
}
