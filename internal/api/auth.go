package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"time"

	"piscineiro/internal/config"
	"piscineiro/internal/domain"
	"piscineiro/internal/models"
)

const (
	permExport = "read:exports"

	clientKeyUnknown = "unknown"
)

type contextKey string

const clientIDKey contextKey = "client_id"

// ClientID returns the authenticated client id put there by RequireSession.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// HTTPAuth covers the three gates in front of the handlers: bearer-token
// sessions for client endpoints, static API keys for the admin surface, and
// rate limiting for everything.
type HTTPAuth struct {
	cfg      config.APIConfig
	accounts domain.AccountService
	sessions domain.SessionRepository
	keys     map[string]config.APIClientKey
	limiter  *keyLimiter
}

func NewHTTPAuth(cfg config.APIConfig, accounts domain.AccountService, sessions domain.SessionRepository) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{
		cfg:      cfg,
		accounts: accounts,
		sessions: sessions,
		keys:     m,
		limiter:  newKeyLimiter(cfg.RateLimit),
	}
}

// Throttle applies the per-caller token bucket before routing.
func (a *HTTPAuth) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.RateLimit.RPS > 0 && !a.limiter.Allow(a.callerKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession resolves the bearer token to a client id and enforces the
// per-client request budget.
func (a *HTTPAuth) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		clientID, err := a.accounts.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		if a.sessions != nil {
			allowed, err := a.sessions.CheckRateLimit(r.Context(), clientID,
				models.RateLimitRequests, time.Duration(models.RateLimitWindow)*time.Second)
			if err == nil && !allowed {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		ctx := context.WithValue(r.Context(), clientIDKey, clientID)
		next(w, r.WithContext(ctx))
	}
}

// RequireAPIKey authenticates the admin surface with a static key.
func (a *HTTPAuth) RequireAPIKey(required string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
		if header == "" {
			header = "x-api-key"
		}

		apiKey := strings.TrimSpace(r.Header.Get(header))
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		key, ok := a.lookupKey(apiKey)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		if !hasPermission(key, required) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}

		next(w, r)
	}
}

// lookupKey runs a constant-time comparison against every configured key so
// timing does not reveal which prefix matched.
func (a *HTTPAuth) lookupKey(apiKey string) (config.APIClientKey, bool) {
	var (
		found config.APIClientKey
		ok    bool
	)
	for key, client := range a.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			found = client
			ok = true
		}
	}
	return found, ok
}

// Empty permission list means allow-all.
func hasPermission(key config.APIClientKey, required string) bool {
	if required == "" || len(key.Permissions) == 0 {
		return true
	}
	for _, p := range key.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

func (a *HTTPAuth) callerKey(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}

	header := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
	if header == "" {
		header = "x-api-key"
	}
	if apiKey := strings.TrimSpace(r.Header.Get(header)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}
