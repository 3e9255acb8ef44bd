// Package config defines the server configuration and how it is loaded.
//
// Conventions:
//   - New(ctx) builds a Config holding every default.
//   - Load(ctx) layers an optional YAML file and PORTFOLIO_* env vars on top.
//   - Load errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RelayURL is the third-party endpoint contact submissions are posted to.
	RelayURL string `koanf:"relay_url"`
	// RelayTimeoutMS bounds a single dispatch to the relay.
	RelayTimeoutMS int `koanf:"relay_timeout_ms"`

	// QueueSize bounds the in-memory dispatch queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of relay workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxBodyBytes caps request bodies of the contact endpoints.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// SiteURL is the canonical public URL used in Open Graph tags.
	SiteURL string `koanf:"site_url"`
	// AnalyticsScriptURL and AnalyticsWebsiteID enable the analytics tag when both are set.
	AnalyticsScriptURL string `koanf:"analytics_script_url"`
	AnalyticsWebsiteID string `koanf:"analytics_website_id"`
}

// DefaultRelayURL is the Apps Script endpoint the site has always relayed to.
const DefaultRelayURL = "https://script.google.com/macros/s/AKfycbz1hEJUiF0aQc3am1shF4MhD8k9HhDG3RW-Bv7h67rQ0RyoHM8WMVOpFlMBvoJgwxbi/exec"

// New creates a Config holding the defaults. The context is reserved for
// future sources and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		RelayURL:           DefaultRelayURL,
		RelayTimeoutMS:     10_000,
		QueueSize:          256,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         10_000,
		MaxBodyBytes:       32 * 1024,
		SiteURL:            "https://artchsh.kz/",
		AnalyticsScriptURL: "https://cloud.umami.is/script.js",
		AnalyticsWebsiteID: "52ccfef9-8b9b-41df-befc-bf0b699e8bb2",
	}
}

// RelayTimeout returns RelayTimeoutMS as a duration.
func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.RelayTimeoutMS) * time.Millisecond
}
