package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/guardlink/config"
	obserrors "github.com/target/guardlink/internal/observability/errors"
	"github.com/target/guardlink/internal/observability/notify"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func buildBackgroundServices(sc ServiceContainer, enabled map[config.ServiceMode]bool) ([]backgroundService, error) {
	var out []backgroundService
	if enabled[config.ServiceModeLinker] {
		if sc.Registry == nil || sc.LinkTicker == nil {
			return nil, errors.New("linker service enabled but link components are not configured")
		}
		out = append(out,
			backgroundService{mode: config.ServiceModeLinker, name: "session registry", start: sc.Registry.Run},
			backgroundService{mode: config.ServiceModeLinker, name: "link tick runner", start: sc.LinkTicker.Run},
		)
	}
	if enabled[config.ServiceModeRoster] {
		if sc.RosterSync == nil {
			return nil, errors.New("roster service enabled but roster components are not configured")
		}
		out = append(out, backgroundService{mode: config.ServiceModeRoster, name: "roster sync", start: sc.RosterSync.Run})
	}
	return out, nil
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// It blocks until a shutdown signal is received or a service fails. On
// shutdown, link admissions stop first and live sessions get up to
// LINK_DRAIN_TIMEOUT to finish before the drivers are cancelled.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	background, err := buildBackgroundServices(cfg.Services, enabled)
	if err != nil {
		return err
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	for _, svc := range background {
		g.Go(func() error {
			logger.InfoContext(gctx, "background service started", "service", svc.name, "mode", svc.mode)
			if err := svc.start(gctx); err != nil {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, svc.name+" stopped")
			return nil
		})
	}

	var server *http.Server
	if enabled[config.ServiceModeHTTP] {
		server = NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	select {
	case <-sigCtx.Done():
		logger.Info("shutting down services...")
		if enabled[config.ServiceModeLinker] {
			drainLinkSessions(gctx, cfg, logger)
		}
	case <-gctx.Done():
		logger.Error("service error, shutting down")
	}

	cancel()
	if server != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{Context: context.Background(), Server: server, Logger: logger}); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for services to stop")
		return nil
	}
}

// drainLinkSessions refuses new admissions and waits for live sessions to
// finish, bounded by the configured drain timeout. A timeout raises an ops alert.
func drainLinkSessions(ctx context.Context, cfg *ServiceOrchestrationConfig, logger *slog.Logger) {
	registry := cfg.Services.Registry
	if registry == nil {
		return
	}
	timeout := cfg.Config.Link.DrainTimeout
	drainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := registry.Drain(drainCtx)
	if err == nil {
		return
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("link session drain aborted", "error", err)
		return
	}

	live, lenErr := registry.Len(ctx)
	if lenErr != nil {
		live = -1
	}
	logger.Warn("link session drain timed out", "timeout", timeout, "live_sessions", live)
	cfg.Services.Observability.FailureNotifier.NotifyOpsAlert(ctx, notify.OpsAlertPayload{
		Kind:       "link_drain_timeout",
		Summary:    "Shutdown proceeded with link sessions still live",
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityWarning,
		OccurredAt: time.Now(),
		Metadata: map[string]string{
			"live_sessions": fmt.Sprint(live),
			"drain_timeout": timeout.String(),
		},
	})
}
