package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/secrets"
	"trustgate/pkg/requestcontext"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	ActorID   id.ActorID
	ActorType id.ActorType
	Role      string
}

// GetActorID retrieves the authenticated actor ID from the context.
func GetActorID(ctx context.Context) id.ActorID {
	return requestcontext.ActorID(ctx)
}

// GetActorType retrieves the authenticated actor type from the context.
func GetActorType(ctx context.Context) id.ActorType {
	return requestcontext.ActorType(ctx)
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	return requestcontext.ActorRole(ctx)
}

// RequireAuth validates the bearer token and stores the actor identity in the
// request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}

			ctx := requestcontext.WithActorID(r.Context(), claims.ActorID)
			ctx = requestcontext.WithActorType(ctx, claims.ActorType)
			ctx = requestcontext.WithActorRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows only authenticated admins past. Must run after
// RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != "admin" {
				logger.WarnContext(r.Context(), "forbidden - admin role required",
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSweepSecret guards the scheduler-facing sweep trigger with a
// bcrypt-hashed shared secret presented as a bearer token.
func RequireSweepSecret(secretHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || secretHash == "" {
				unauthorized(w)
				return
			}
			if err := secrets.Verify(token, secretHash); err != nil {
				logger.WarnContext(r.Context(), "sweep trigger rejected",
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	return strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or missing credentials"}`))
}
