package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/assetops/sga/internal/app/auth"
)

type contextKey string

const (
	userContextKey contextKey = "api-user"
	roleContextKey contextKey = "api-role"
)

// identityFromContext returns the authenticated username and role, if any.
func identityFromContext(ctx context.Context) (string, string) {
	user, _ := ctx.Value(userContextKey).(string)
	role, _ := ctx.Value(roleContextKey).(string)
	return user, role
}

// publicAPIPath reports whether an API path skips authentication. Login must
// be open, and QR endpoints are fetched by phone cameras with no session.
func publicAPIPath(path string) bool {
	if path == "/api/auth/login" {
		return true
	}
	if strings.HasPrefix(path, "/api/activos/") && strings.HasSuffix(path, "/qr") {
		return true
	}
	if strings.HasPrefix(path, "/api/activos/codigo/") {
		return true
	}
	return false
}

// wrapWithAuth enforces bearer authentication on /api paths. Static service
// tokens and JWTs issued by the auth manager are both accepted.
func wrapWithAuth(next http.Handler, tokens []string, authMgr *auth.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api") || publicAPIPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("missing bearer token"))
			return
		}
		presented := strings.TrimSpace(parts[1])

		for _, token := range tokens {
			if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1 {
				ctx := context.WithValue(r.Context(), userContextKey, "service-token")
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		if authMgr != nil {
			if claims, err := authMgr.Verify(presented); err == nil {
				ctx := context.WithValue(r.Context(), userContextKey, claims.Username)
				ctx = context.WithValue(ctx, roleContextKey, claims.Role)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
	})
}

// wrapWithAudit records every API request in the audit log.
func wrapWithAudit(next http.Handler, log *auditLog) http.Handler {
	if log == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api") {
			next.ServeHTTP(w, r)
			return
		}
		rec := &auditRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		user, role := identityFromContext(r.Context())
		log.add(auditEntry{
			Time:       time.Now().UTC(),
			User:       user,
			Role:       role,
			Path:       r.URL.Path,
			Method:     r.Method,
			Status:     rec.status,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

type auditRecorder struct {
	http.ResponseWriter
	status int
}

func (r *auditRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
