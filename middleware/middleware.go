package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/premsla/Task-Management/logging"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/utils"
)

type contextKey string

const userKey contextKey = "authUser"

// UserLookup resolves a token's user id claim to a full user record. It is
// injected so the middleware can be tested without a database.
type UserLookup func(ctx context.Context, userID string) (*models.User, error)

// UserFromContext returns the authenticated user stored by JWTAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// extractToken reads the session token from the httpOnly cookie or, failing
// that, the Authorization bearer header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// JWTAuth validates the session token and loads the caller's user record
// into the request context.
func JWTAuth(lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_TOKEN, Description: No token for request to %s %s", r.Method, r.URL.Path)
				http.Error(w, "Not authorized. Try login again.", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Not authorized. Try login again.", http.StatusUnauthorized)
				return
			}

			user, err := lookup(r.Context(), claims.UserID)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_USER_LOOKUP_FAILED, Description: User %s not found for valid token: %v", claims.UserID, err)
				http.Error(w, "Not authorized. Try login again.", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects callers without the isAdmin flag. Must run inside
// JWTAuth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin {
			http.Error(w, "Not authorized as admin. Try login as admin.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured client origins plus preflight handling.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs method, path and duration of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Logger.Infof("Event ID: HTTP_REQUEST, Description: %s %s completed in %s", r.Method, r.URL.Path, time.Since(start))
	})
}
