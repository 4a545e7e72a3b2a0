package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleTimeout     time.Duration // buckets unused this long are dropped
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a configuration allowing perSecond requests per client with
// the given burst. A non-positive rate disables limiting. Analysis endpoints
// get their own stricter limits.
func NewConfig(perSecond float64, burst int, whitelist []string) *Config {
	if perSecond <= 0 {
		return &Config{Enabled: false}
	}
	if burst <= 0 {
		burst = 1
	}
	// Express the rate as a whole number of requests per window.
	window := time.Second
	limit := perSecond
	for limit < 1 && window < time.Hour {
		window *= 60
		limit *= 60
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    int(limit + 0.5),
		DefaultWindow:   window,
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       parseIPList(strings.Join(whitelist, ",")),
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: provider calls (strictest limits)
		{Path: "/analyses", Method: "POST", Limit: 20, Window: time.Minute, Burst: 3},
		{Path: "/analyses/upload", Method: "POST", Limit: 20, Window: time.Minute, Burst: 3},

		// Tier 2: credential checks
		{Path: "/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/register", Method: "POST", Limit: 5, Window: time.Minute, Burst: 2},

		// Tier 3: everything else uses the default limit
		// Tier 4: health check (unlimited) - handled by special case in matcher
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}
