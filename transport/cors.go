package transport

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls cross-origin access to the HTTP transport, for
// JSON-RPC clients running in browsers.
type CORSConfig struct {
	// AllowOrigins lists the origins granted access. A single "*" grants
	// every origin.
	AllowOrigins []string

	// AllowMethods lists HTTP methods allowed in preflight responses.
	// Empty means GET, POST, OPTIONS: POST for the RPC endpoint, GET for
	// the health check.
	AllowMethods []string

	// AllowHeaders lists request headers allowed in preflight responses.
	// Empty means Content-Type, Authorization, X-API-Key and X-Request-ID,
	// covering the credential headers the auth middleware reads.
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and TLS client certificates.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero means a day.
	MaxAge int
}

// DefaultCORSConfig allows every origin. Meant for development; production
// deployments should list theirs.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		MaxAge:       86400,
	}
}

func (c CORSConfig) withDefaults() CORSConfig {
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 86400
	}
	return c
}

// CORSHandler wraps next with CORS handling per config: it answers
// preflights itself and stamps allow headers on everything else. Requests
// from origins outside the allow list pass through without CORS headers;
// the browser does the actual blocking.
func CORSHandler(config CORSConfig, next http.Handler) http.Handler {
	config = config.withDefaults()

	wildcard := len(config.AllowOrigins) == 1 && config.AllowOrigins[0] == "*"
	allowed := make(map[string]struct{}, len(config.AllowOrigins))
	for _, o := range config.AllowOrigins {
		allowed[o] = struct{}{}
	}

	// Joined once, reused by every preflight.
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")
	expose := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grant := ""
		switch origin := r.Header.Get("Origin"); {
		case wildcard:
			grant = "*"
		case origin != "":
			if _, ok := allowed[origin]; ok {
				grant = origin
			}
		}

		if grant == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", grant)
		if config.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if expose != "" {
			h.Set("Access-Control-Expose-Headers", expose)
		}
		next.ServeHTTP(w, r)
	})
}

// WithCORS configures cross-origin access for the HTTP transport.
func WithCORS(config CORSConfig) HTTPOption {
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}

// WithDefaultCORS enables the permissive development configuration.
func WithDefaultCORS() HTTPOption {
	config := DefaultCORSConfig()
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}
