package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	// RosterRunTimeout bounds a synchronous POST /api/roster/run.
	RosterRunTimeout time.Duration `env:"HTTP_ROSTER_RUN_TIMEOUT" envDefault:"10m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 5 * time.Second
	}
	if h.RosterRunTimeout <= 0 {
		h.RosterRunTimeout = 10 * time.Minute
	}
}
