// Package cloudlyservice boots the Cloudly HTTP API.
package cloudlyservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	apihttp "github.com/amelia751/cloudly/internal/api/http"
	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/config"
	"github.com/amelia751/cloudly/internal/factory"
	"github.com/amelia751/cloudly/internal/health"
	"github.com/amelia751/cloudly/internal/logger"
	"github.com/amelia751/cloudly/internal/services"
	"github.com/amelia751/cloudly/internal/store"
	"github.com/amelia751/cloudly/internal/store/sqlstore"
)

const serviceName = "cloudly-service"

// Run starts the HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New(serviceName, "info")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.New(serviceName, cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Cloudly service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	router, err := buildRouter(cfg, st, svcHealth, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to build router")
		return err
	}

	// Block startup until the store reports healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires services and provider clients into the HTTP API.
func buildRouter(cfg *config.Config, st *sqlstore.SQLStore, hs apihttp.HealthSource, log zerolog.Logger) (http.Handler, error) {
	authorizer, err := auth.NewAuthorizer(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		log.Warn().Str("api_key", auth.LocalDevAPIKey).Msg("JWT secret not set; accepting the local development key only")
	}

	vc := factory.NewVapiClient(cfg)
	xc := factory.NewElevenLabsClient(cfg)

	return apihttp.NewRouter(apihttp.Deps{
		Directory:  services.NewDirectoryService(st),
		Assistants: services.NewAssistantService(st, vc, xc, factory.AssistantSettings(cfg), log),
		Knowledge:  services.NewKnowledgeService(vc),
		Voices:     services.NewVoiceService(st, xc, log),
		Authorizer: authorizer,
		Health:     hs,
		Log:        log,
	}), nil
}

// startHealthCheckers runs the store probe under the service-level aggregate.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.Service {
	svcHealth := health.NewService(log, store.NewHealthChecker(st, log, cfg.HealthProbeTimeout()))
	go svcHealth.Run(ctx, cfg.HealthInterval())
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the health interval, at least 30 seconds.
func startupHealthTimeout(interval time.Duration) time.Duration {
	timeout := 2 * interval
	if timeout < 30*time.Second {
		return 30 * time.Second
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.Service) error {
	timeout := startupHealthTimeout(cfg.HealthInterval())
	if svcHealth.WaitHealthy(ctx, timeout) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
