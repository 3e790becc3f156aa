package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"minitweet/internal/httputil"
	"minitweet/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"

	// UsernameKey is the context key for the authenticated user's username
	UsernameKey contextKey = "username"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*model.TokenClaims, error)
}

// UserLookup resolves the token subject to a live user record.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header whose
// subject still exists. The subject's ID and username are put on the context.
func AuthMiddleware(verifier TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Unauthorized: No token provided or malformed token")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				if errors.Is(err, model.ErrTokenExpired) {
					httputil.WriteUnauthorizedWithCode(w, httputil.ErrCodeTokenExpired, "Unauthorized: Token expired")
					return
				}
				httputil.WriteUnauthorized(w, "Unauthorized: Invalid token")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					httputil.WriteUnauthorized(w, "Unauthorized: User not found")
					return
				}
				// Drivers report cancellation with their own errors, so check the request too.
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(r.Context().Err(), context.DeadlineExceeded) {
					httputil.WriteServiceUnavailable(w, "Service temporarily unavailable")
					return
				}
				log.Printf("[ERROR] auth middleware: resolve user %s: %v", claims.UserID, err)
				httputil.WriteInternalError(w, "Internal Server Error")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UsernameKey, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or "" and false if not found
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetUsernameFromContext extracts the authenticated username from the request context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}
