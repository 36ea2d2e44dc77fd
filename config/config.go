package config

import (
	"log/slog"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Postgres and Redis connections
//   - http.go: HTTP server configuration
//   - services.go: service modes, link sessions and roster sync
//   - upstream.go: provider and community API clients
//   - observability.go: metrics and ops notifications
type AppConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Services is a comma list of drivers to run in this process.
	Services string `env:"SERVICES" envDefault:"http,linker,roster"`

	Link   LinkConfig   `envPrefix:"LINK_"`
	Roster RosterConfig `envPrefix:"ROSTER_"`

	Provider  ProviderConfig  `envPrefix:"PROVIDER_"`
	Community CommunityConfig `envPrefix:"COMMUNITY_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.HTTP.Sanitize()
	c.Link.Sanitize()
	c.Roster.Sanitize()
	c.Provider.Sanitize()
	c.Community.Sanitize()
	c.Observability.Sanitize()
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool { return c.serviceEnabled(ServiceModeHTTP) }

// IsLinkerEnabled returns true if the link session driver is enabled.
func (c *AppConfig) IsLinkerEnabled() bool { return c.serviceEnabled(ServiceModeLinker) }

// IsRosterEnabled returns true if the roster sync driver is enabled.
func (c *AppConfig) IsRosterEnabled() bool { return c.serviceEnabled(ServiceModeRoster) }

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
