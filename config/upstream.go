package config

import (
	"strings"
	"time"
)

// ProviderConfig configures the external account provider client.
type ProviderConfig struct {
	PassportBaseURL string        `env:"PASSPORT_BASE_URL" envDefault:"https://passport.bilibili.com"`
	APIBaseURL      string        `env:"API_BASE_URL"      envDefault:"https://api.bilibili.com"`
	LiveBaseURL     string        `env:"LIVE_BASE_URL"     envDefault:"https://api.live.bilibili.com"`
	RoomID          int64         `env:"ROOM_ID"`
	RulerUID        int64         `env:"RULER_UID"`
	Timeout         time.Duration `env:"TIMEOUT"           envDefault:"10s"`
	UserAgent       string        `env:"USER_AGENT"`

	// JMESPath expressions locating roster fields; empty uses the built-in defaults.
	RosterTotalPagesPath string `env:"ROSTER_TOTAL_PAGES_PATH"`
	RosterTotalCountPath string `env:"ROSTER_TOTAL_COUNT_PATH"`
	RosterTopPath        string `env:"ROSTER_TOP_PATH"`
	RosterListPath       string `env:"ROSTER_LIST_PATH"`
}

// Sanitize applies guardrails to provider configuration values.
func (c *ProviderConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.UserAgent = strings.TrimSpace(c.UserAgent)
}

// CommunityConfig configures the community bot client and the role layout.
type CommunityConfig struct {
	BaseURL  string `env:"BASE_URL"  envDefault:"https://www.kookapp.cn/api/v3"`
	BotToken string `env:"BOT_TOKEN"`
	GuildID  string `env:"GUILD_ID"`
	// TierRoles lists tier role ids, tier 1 first.
	TierRoles      []string      `env:"TIER_ROLES"`
	BindingRole    string        `env:"BINDING_ROLE"`
	BindingChannel string        `env:"BINDING_CHANNEL"`
	AdminChannel   string        `env:"ADMIN_CHANNEL"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize trims identifiers and drops empty tier entries.
func (c *CommunityConfig) Sanitize() {
	c.BotToken = strings.TrimSpace(c.BotToken)
	c.GuildID = strings.TrimSpace(c.GuildID)
	c.BindingRole = strings.TrimSpace(c.BindingRole)
	c.BindingChannel = strings.TrimSpace(c.BindingChannel)
	c.AdminChannel = strings.TrimSpace(c.AdminChannel)
	roles := c.TierRoles[:0]
	for _, r := range c.TierRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	c.TierRoles = roles
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
