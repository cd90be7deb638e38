package gateway

import "time"

// Config holds HTTP gateway configuration.
type Config struct {
	// Listen is the bind address.
	Listen string

	// Token protects the status, trigger, and event-stream routes with
	// bearer auth. Those routes are not mounted when it is empty.
	Token string

	// ConfigDigest identifies the loaded configuration, reported by
	// GET /health.
	ConfigDigest string

	// Version is the build version, reported by GET /health.
	Version string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8600"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// authConfigured reports whether the protected routes can be mounted.
func (c Config) authConfigured() bool {
	return c.Token != ""
}
