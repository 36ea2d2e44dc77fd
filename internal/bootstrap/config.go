package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/target/guardlink/config"
)

// InitLogger initializes the structured logger and installs it as the default.
func InitLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig validates that at least one service is enabled and
// that every enabled driver has the upstream settings it needs.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	if services[config.ServiceModeLinker] || services[config.ServiceModeRoster] {
		if err := validateCommunity(cfg.Community); err != nil {
			return err
		}
	}
	if services[config.ServiceModeLinker] && cfg.Community.BindingChannel == "" {
		return errors.New("COMMUNITY_BINDING_CHANNEL is required for the linker service")
	}
	if services[config.ServiceModeRoster] {
		if cfg.Provider.RoomID <= 0 || cfg.Provider.RulerUID <= 0 {
			return errors.New("PROVIDER_ROOM_ID and PROVIDER_RULER_UID are required for the roster service")
		}
	}

	return nil
}

func validateCommunity(c config.CommunityConfig) error {
	switch {
	case c.BotToken == "":
		return errors.New("COMMUNITY_BOT_TOKEN is required")
	case c.GuildID == "":
		return errors.New("COMMUNITY_GUILD_ID is required")
	case len(c.TierRoles) == 0:
		return errors.New("COMMUNITY_TIER_ROLES must list at least one role")
	}
	return nil
}

// GetEnabledServices returns a list of enabled service names.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabledServices := make([]string, 0, len(services))
	for _, mode := range config.ValidServiceModes() {
		if services[mode] {
			enabledServices = append(enabledServices, string(mode))
		}
	}

	return enabledServices
}
