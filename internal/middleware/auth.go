package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/penshort/usermcp/internal/auth"
	"github.com/penshort/usermcp/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier *auth.Verifier
	Metrics  metrics.Recorder
}

// Auth returns a middleware that rejects requests without a valid bearer
// token. Rejected requests never reach the wrapped handler.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				reject(cfg.Logger, rec, w, r, "missing_token")
				return
			}
			if !cfg.Verifier.Verify(token) {
				reject(cfg.Logger, rec, w, r, "invalid_token")
				return
			}

			caller := &auth.Caller{Fingerprint: auth.Fingerprint(token)}
			cfg.Logger.Debug("authentication successful",
				slog.String("token_fingerprint", caller.Fingerprint),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(logger *slog.Logger, rec metrics.Recorder, w http.ResponseWriter, r *http.Request, reason string) {
	rec.IncAuthFailure()
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	writeAuthError(w)
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
	writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or missing bearer token")
}
