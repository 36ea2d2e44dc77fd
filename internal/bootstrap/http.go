package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/guardlink/config"
	httpx "github.com/target/guardlink/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// NewHTTPServer builds the HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: routerServices(appCfg, cfg.Services, logger),
	})

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		// Roster runs are synchronous and may take minutes.
		WriteTimeout: appCfg.HTTP.RosterRunTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// routerServices exposes only the components this process actually runs.
// Link sessions need the registry loop, so they are served only when the
// linker driver is enabled here.
func routerServices(cfg *config.AppConfig, sc ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		RosterRunTimeout: cfg.HTTP.RosterRunTimeout,
		Logger:           logger,
	}
	if sc.Registry != nil && cfg.IsLinkerEnabled() {
		rs.Links = sc.Registry
	}
	if sc.RosterSync != nil {
		rs.Roster = sc.RosterSync
	}
	if sc.Snapshots != nil {
		rs.Snapshots = sc.Snapshots
	}
	if sc.Members != nil {
		rs.Members = sc.Members
	}
	if sc.Observability.Prometheus != nil {
		rs.Metrics = sc.Observability.Prometheus.Handler()
	}
	return rs
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
}

// Order: Recover -> RequestID -> Logging -> Router.
func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	h := httpx.NewRouter(cfg.Services)
	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.RequestID()(h)
	h = httpx.Recover(cfg.Logger)(h)
	return h
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
