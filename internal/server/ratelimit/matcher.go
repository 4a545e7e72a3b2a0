package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for requests that never consume tokens.
var unlimited = EndpointConfig{}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/history/" matches "/history/{id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks and CORS preflights are unlimited
	if (path == "/health" && method == http.MethodGet) || method == http.MethodOptions {
		u := unlimited
		return &u
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	// Prefix match for paths ending with "/"
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}

	return nil
}
