package apiapp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	adminauthsvc "github.com/DevAniketIT/Playbharat/internal/services/adminauth"
	ratesvc "github.com/DevAniketIT/Playbharat/internal/services/rate"
	httperrors "github.com/DevAniketIT/Playbharat/internal/transport/http/errors"
)

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

// AuthMiddleware validates the bearer token and attaches the moderator
// identity to the request context.
func AuthMiddleware(tokens *adminauthsvc.TokenManager, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
					Code:    "AUTH_UNAVAILABLE",
					Message: "token manager is unavailable",
				})
				return
			}

			raw, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "missing bearer token",
				})
				return
			}

			identity, err := tokens.Validate(raw)
			if err != nil {
				if log != nil {
					log.Debug("token validation failed", zap.Error(err))
				}
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "invalid token",
				})
				return
			}

			ctx := adminauthsvc.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole narrows an authenticated route to specific roles. The token
// already guarantees a moderating role; this is for admin-only surfaces.
func RequireRole(roles ...enums.Role) func(http.Handler) http.Handler {
	allowed := make(map[enums.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := adminauthsvc.IdentityFromContext(r.Context())
			if !ok {
				httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
					Code:    "UNAUTHORIZED",
					Message: "moderation token required",
				})
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
					Code:    "PERMISSION_DENIED",
					Message: "insufficient role",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit throttles write requests per authenticated admin. Reads pass
// through untouched. When Redis is unreachable the request is let through;
// the throttle is protection against runaway moderation scripts, not an
// authorization control.
func RateLimit(limiter *ratesvc.Limiter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Enabled() || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := adminauthsvc.IdentityFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter, allowed, err := limiter.AllowAction(r.Context(), identity.AdminID)
			if err != nil {
				if log != nil {
					log.Warn("rate limiter unavailable", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{
					Code:    "RATE_LIMITED",
					Message: "too many moderation actions, slow down",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
