package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/guardlink/config"
	"github.com/target/guardlink/internal/adapters/community"
	"github.com/target/guardlink/internal/adapters/provider"
	redisadapter "github.com/target/guardlink/internal/adapters/redis"
	schedrunner "github.com/target/guardlink/internal/adapters/scheduler"
	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/data"
	"github.com/target/guardlink/internal/domain/model"
	"github.com/target/guardlink/internal/observability/metrics"
	"github.com/target/guardlink/internal/observability/notify/pagerduty"
	"github.com/target/guardlink/internal/observability/notify/slack"
	"github.com/target/guardlink/internal/observability/prom"
	"github.com/target/guardlink/internal/observability/statsd"
	"github.com/target/guardlink/internal/retry"
	"github.com/target/guardlink/internal/service"
	"github.com/target/guardlink/internal/service/failurenotifier"
)

// ServiceContainer holds all application services. Link and roster
// components are nil when the community client is not configured.
type ServiceContainer struct {
	Provider  *provider.Client
	Community *community.Client
	Members   *data.MemberRepo
	Snapshots *redisadapter.SnapshotCache

	Binder     *service.AccountBinder
	Registry   *service.SessionRegistry
	LinkTicker *schedrunner.Runner

	Ingestor   *service.RosterIngestor
	Reconciler *service.Reconciler
	RosterSync *service.RosterSyncService

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// Metrics fans out to every configured sink; nil when none is enabled.
	Metrics         metrics.Sink
	Prometheus      *prom.Sink
	StatsD          *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// Close releases observability resources.
func (o ObservabilityContainer) Close() error {
	if o.StatsD == nil {
		return nil
	}
	return o.StatsD.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{
		MetricsConfig:  cfg.Metrics,
		NotifierConfig: cfg.Notifications,
	}

	var sinks []metrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		out.Prometheus = prom.New(cfg.Metrics.Prefix)
		sinks = append(sinks, out.Prometheus)
	}
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.StatsD = client
			sinks = append(sinks, client)
		}
	}
	switch len(sinks) {
	case 0:
	case 1:
		out.Metrics = sinks[0]
	default:
		out.Metrics = metrics.NewMulti(sinks...)
	}

	out.FailureNotifier = buildFailureNotifier(obsLogger, cfg.Notifications)
	return out
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger,
		Sinks:  sinks,
	})
}

// NewServices builds every component the enabled drivers need.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sc := ServiceContainer{
		Observability: buildObservability(logger, cfg.Observability),
	}
	if deps.DB != nil {
		sc.Members = data.NewMemberRepo(deps.DB, nil)
	}
	if deps.RedisClient != nil {
		sc.Snapshots = redisadapter.NewSnapshotCache(deps.RedisClient, redisadapter.SnapshotCacheOptions{
			Prefix:     cfg.Redis.KeyPrefix,
			HistoryTTL: cfg.Redis.SnapshotHistoryTTL,
		})
	}

	prov, err := newProviderClient(cfg.Provider, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	sc.Provider = prov

	if cfg.Community.BotToken == "" {
		logger.Info("community client not configured, link and roster services unavailable")
		return sc, nil
	}
	comm, err := community.NewClient(community.Config{
		BaseURL:  cfg.Community.BaseURL,
		BotToken: cfg.Community.BotToken,
		GuildID:  cfg.Community.GuildID,
		Timeout:  cfg.Community.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("community client: %w", err)
	}
	sc.Community = comm

	tiers, err := model.NewTierRoleTable(cfg.Community.TierRoles)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("tier roles: %w", err)
	}
	if sc.Members == nil {
		return sc, nil
	}

	if err := buildLinkServices(&sc, cfg, tiers, logger); err != nil {
		return ServiceContainer{}, err
	}
	if err := buildRosterServices(&sc, cfg, tiers, logger); err != nil {
		return ServiceContainer{}, err
	}
	return sc, nil
}

func newProviderClient(cfg config.ProviderConfig, logger *slog.Logger) (*provider.Client, error) {
	c, err := provider.NewClient(provider.Config{
		PassportBaseURL: cfg.PassportBaseURL,
		APIBaseURL:      cfg.APIBaseURL,
		LiveBaseURL:     cfg.LiveBaseURL,
		RoomID:          cfg.RoomID,
		RulerUID:        cfg.RulerUID,
		Timeout:         cfg.Timeout,
		UserAgent:       cfg.UserAgent,
		Paths: provider.RosterPaths{
			TotalPages: cfg.RosterTotalPagesPath,
			TotalCount: cfg.RosterTotalCountPath,
			Top:        cfg.RosterTopPath,
			List:       cfg.RosterListPath,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("provider client: %w", err)
	}
	return c, nil
}

// snapshotCache avoids handing a typed nil to services that treat the cache as optional.
//
//nolint:ireturn // the cache is an optional port.
func (sc *ServiceContainer) snapshotCache() core.SnapshotCache {
	if sc.Snapshots == nil {
		return nil
	}
	return sc.Snapshots
}

func buildLinkServices(sc *ServiceContainer, cfg *config.AppConfig, tiers model.TierRoleTable, logger *slog.Logger) error {
	obs := sc.Observability
	binder, err := service.NewAccountBinder(service.AccountBinderOptions{
		Provider:       sc.Provider,
		Store:          sc.Members,
		Gateway:        sc.Community,
		Tiers:          tiers,
		Snapshots:      sc.snapshotCache(),
		Messenger:      sc.Community,
		BindingRole:    cfg.Community.BindingRole,
		ConfirmChannel: cfg.Community.BindingChannel,
		GrantPolicy:    retry.Policy{MaxAttempts: cfg.Link.GrantAttempts, Backoff: retry.Linear(500 * time.Millisecond)},
		NotifyPolicy:   retry.Policy{MaxAttempts: cfg.Link.NotifyAttempts, Backoff: retry.Linear(500 * time.Millisecond)},
		Logger:         logger,
		Metrics:        obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("account binder: %w", err)
	}
	sc.Binder = binder

	var notifier service.OutcomeNotifier
	if cfg.Community.BindingChannel != "" {
		n, err := service.NewLinkNotifier(service.LinkNotifierOptions{
			Messenger: sc.Community,
			Channel:   cfg.Community.BindingChannel,
			Policy:    retry.Policy{MaxAttempts: cfg.Link.NotifyAttempts, Backoff: retry.Linear(500 * time.Millisecond)},
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("link notifier: %w", err)
		}
		notifier = n
	}

	registry, err := service.NewSessionRegistry(service.SessionRegistryOptions{
		Provider:          sc.Provider,
		Completer:         binder,
		Notifier:          notifier,
		Timeout:           cfg.Link.SessionTimeout,
		DrainPollInterval: cfg.Link.DrainPollInterval,
		CallTimeout:       cfg.Link.CallTimeout,
		Logger:            logger,
		Metrics:           obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("session registry: %w", err)
	}
	sc.Registry = registry

	ticker, err := schedrunner.NewRunner(schedrunner.RunnerOptions{
		Ticker:   registry,
		Name:     "link",
		Interval: cfg.Link.PollInterval,
		Logger:   logger,
		Metrics:  obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("link tick runner: %w", err)
	}
	sc.LinkTicker = ticker
	return nil
}

func buildRosterServices(sc *ServiceContainer, cfg *config.AppConfig, tiers model.TierRoleTable, logger *slog.Logger) error {
	obs := sc.Observability
	ingestor, err := service.NewRosterIngestor(service.RosterIngestorOptions{
		Source:       sc.Provider,
		Cache:        sc.snapshotCache(),
		PageDelay:    cfg.Roster.PageDelay,
		PageAttempts: cfg.Roster.PageAttempts,
		RetryBackoff: cfg.Roster.RetryBackoff,
		Logger:       logger,
		Metrics:      obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("roster ingestor: %w", err)
	}
	sc.Ingestor = ingestor

	scope, err := service.ParseReconcileScope(cfg.Roster.ReconcileScope)
	if err != nil {
		return err
	}
	reconciler, err := service.NewReconciler(service.ReconcilerOptions{
		Store:   sc.Members,
		Gateway: sc.Community,
		Tiers:   tiers,
		Scope:   scope,
		Logger:  logger,
		Metrics: obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	sc.Reconciler = reconciler

	syncSvc, err := service.NewRosterSyncService(service.RosterSyncOptions{
		Ingestor:            ingestor,
		Reconciler:          reconciler,
		Cache:               sc.snapshotCache(),
		Messenger:           sc.Community,
		AdminChannel:        cfg.Community.AdminChannel,
		Alerts:              obs.FailureNotifier,
		Interval:            cfg.Roster.Interval,
		StartupJitter:       cfg.Roster.StartupJitter,
		RunOnStartWhenEmpty: cfg.Roster.RunOnStartWhenEmpty,
		Logger:              logger,
		Metrics:             obs.Metrics,
	})
	if err != nil {
		return fmt.Errorf("roster sync: %w", err)
	}
	sc.RosterSync = syncSvc
	return nil
}
