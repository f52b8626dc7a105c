package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/inkpress/go-blog-api/app/observability/metrics"
	"github.com/inkpress/go-blog-api/config"
	"github.com/inkpress/go-blog-api/internal/api"
	"github.com/inkpress/go-blog-api/internal/types"
)

// Define typed context keys
type contextKey string

const userContextKey contextKey = "authenticatedUser"

// UserStore is the lookup the middleware needs to materialize the
// authenticated user. Satisfied by AuthRepo.
type UserStore interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// GetUserFromContext returns the user attached by Authenticate or
// OptionalAuthenticate, if any.
func GetUserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(userContextKey).(*types.User)
	return user, ok
}

// ContextWithUser attaches a user the way the auth middleware does. Handlers
// under test can use it instead of running the full middleware chain.
func ContextWithUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// bearerToken extracts the token portion of an "Authorization: Bearer x"
// header. ok is false for a missing header, a different scheme, or an empty
// token portion.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate is middleware to validate bearer access tokens and load the
// referenced user into the request context. Every failure terminates the
// request:
//
//	missing/malformed header  -> 401 Access token required
//	bad signature/structure   -> 403 Invalid token
//	expired token             -> 403 Token expired
//	lookup error or no user   -> 500 Authentication failed
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig, users UserStore) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))
			m := metrics.Get()

			tokenString, ok := bearerToken(r)
			if !ok {
				l.WarnContext(ctx, "Missing or malformed Authorization header")
				m.RecordAuthRequest(ctx, "missing_token")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := VerifyToken(tokenString, secretKey)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				if errors.Is(err, ErrTokenExpired) {
					m.RecordAuthRequest(ctx, "expired")
					api.ErrorResponse(w, r, http.StatusForbidden, "Token expired")
					return
				}
				m.RecordAuthRequest(ctx, "invalid")
				api.ErrorResponse(w, r, http.StatusForbidden, "Invalid token")
				return
			}

			// Anything that goes wrong past this point is a backend failure:
			// a user referenced by a validly signed token should exist. A
			// deleted user therefore also lands on the generic 500 path.
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.ErrorContext(ctx, "Token carries malformed user ID", slog.String("user_id", claims.UserID))
				m.RecordAuthRequest(ctx, "failed")
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Authentication failed")
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				l.ErrorContext(ctx, "User lookup failed during authentication",
					slog.String("userID", userID.String()), slog.Any("error", err))
				m.RecordAuthRequest(ctx, "failed")
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Authentication failed")
				return
			}

			m.RecordAuthRequest(ctx, "ok")
			ctx = ContextWithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate performs the same token verification and user lookup
// as Authenticate but never rejects: any failure, including an inactive user,
// simply leaves the request anonymous.
func OptionalAuthenticate(logger *slog.Logger, jwtCfg config.JWTConfig, users UserStore) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "OptionalAuthenticate"))

			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := VerifyToken(tokenString, secretKey)
			if err != nil {
				l.DebugContext(ctx, "Ignoring invalid token on optional route", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil || !user.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			ctx = ContextWithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize gates access by role. It must run after Authenticate; it performs
// no lookups of its own. An empty role list allows every authenticated user.
func Authorize(logger *slog.Logger, allowedRoles ...string) func(next http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, ok := GetUserFromContext(ctx)
			if !ok {
				logger.WarnContext(ctx, "Authorize called with no authenticated user in context")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			if len(roleSet) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			if _, allowed := roleSet[user.Role]; !allowed {
				logger.WarnContext(ctx, "Role check failed",
					slog.String("role", user.Role), slog.Any("allowed_roles", allowedRoles))
				msg := fmt.Sprintf("Access denied. This action requires one of the following roles: %s",
					strings.Join(allowedRoles, ", "))
				api.ErrorResponse(w, r, http.StatusForbidden, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
