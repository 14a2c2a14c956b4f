// Package app wires configuration, telemetry, the grid service and the HTTP
// server into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"gridview/internal/config"
	"gridview/internal/infrastructure"
	"gridview/internal/services"
	transporthttp "gridview/internal/transport/http"
)

// Application is the gridview HTTP server.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Service       *services.GridService
	Server        *http.Server
}

// NewApplication opens the configured source and builds the server.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := infrastructure.InitializeOTel(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	svc, err := services.Open(ctx, cfg, providers.Meter, providers.Tracer, logger)
	if err != nil {
		providers.Shutdown(ctx)
		return nil, err
	}

	httpMetrics, err := infrastructure.NewHTTPMetrics(providers.Meter)
	if err != nil {
		svc.Close()
		providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Service:        svc,
		Logger:         logger,
		RateLimit:      cfg.Server.RateLimit,
		Tracer:         providers.Tracer,
		Metrics:        httpMetrics,
		MetricsHandler: providers.MetricsHandler,
	})

	return &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Service:       svc,
		Server: &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

// Run serves on the configured address until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("source", a.Config.Source.Kind))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop shuts the server down and releases the source and telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Service.Close(); err != nil {
		errs = append(errs, fmt.Errorf("source close: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
