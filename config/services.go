package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the ops/API HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeLinker runs the link session registry and its tick driver.
	ServiceModeLinker ServiceMode = "linker"
	// ServiceModeRoster runs roster ingestion and reconciliation.
	ServiceModeRoster ServiceMode = "roster"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeLinker, ServiceModeRoster}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeLinker, ServiceModeRoster:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, linker, roster)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// LinkConfig controls login sessions used for account linking.
type LinkConfig struct {
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"121s"`
	// PollInterval is the tick period; every pending session polls once per tick.
	PollInterval      time.Duration `env:"POLL_INTERVAL"       envDefault:"3s"`
	DrainPollInterval time.Duration `env:"DRAIN_POLL_INTERVAL" envDefault:"1s"`
	DrainTimeout      time.Duration `env:"DRAIN_TIMEOUT"       envDefault:"3m"`
	NotifyAttempts    int           `env:"NOTIFY_ATTEMPTS"     envDefault:"3"`
	GrantAttempts     int           `env:"GRANT_ATTEMPTS"      envDefault:"3"`
	// CallTimeout bounds one provider call or completion inside the registry loop.
	CallTimeout time.Duration `env:"CALL_TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to link configuration values.
func (c *LinkConfig) Sanitize() {
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 121 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	// A session must get at least ten polls before it expires.
	if c.SessionTimeout < 10*c.PollInterval {
		c.PollInterval = c.SessionTimeout / 10
	}
	if c.DrainPollInterval <= 0 {
		c.DrainPollInterval = time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 3 * time.Minute
	}
	c.NotifyAttempts = max(c.NotifyAttempts, 1)
	c.GrantAttempts = max(c.GrantAttempts, 1)
	if c.CallTimeout <= 0 {
		c.CallTimeout = 15 * time.Second
	}
}

// RosterConfig controls roster ingestion and reconciliation.
type RosterConfig struct {
	Interval  time.Duration `env:"INTERVAL"   envDefault:"2h"`
	PageDelay time.Duration `env:"PAGE_DELAY" envDefault:"1500ms"`
	// PageAttempts counts the first try; 3 means two retries.
	PageAttempts        int           `env:"PAGE_ATTEMPTS"           envDefault:"3"`
	RetryBackoff        time.Duration `env:"RETRY_BACKOFF"           envDefault:"500ms"`
	ReconcileScope      string        `env:"RECONCILE_SCOPE"         envDefault:"bound"`
	RunOnStartWhenEmpty bool          `env:"RUN_ON_START_WHEN_EMPTY" envDefault:"true"`
	StartupJitter       time.Duration `env:"STARTUP_JITTER"          envDefault:"10s"`
}

// Sanitize applies guardrails to roster configuration values.
func (c *RosterConfig) Sanitize() {
	if c.Interval < time.Minute {
		c.Interval = time.Minute
	}
	if c.PageDelay < 0 {
		c.PageDelay = 0
	}
	c.PageAttempts = max(c.PageAttempts, 1)
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	c.ReconcileScope = strings.ToLower(strings.TrimSpace(c.ReconcileScope))
	if c.StartupJitter < 0 {
		c.StartupJitter = 0
	}
}
