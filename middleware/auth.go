package middleware

import (
	"context"
	"nest-server/core"
	"nest-server/handlers/auth"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

type contextKey string

const ClaimsContextKey = contextKey("claims")

// claimsFromRequest returns the parsed bearer token, nil claims when no
// Authorization header is present, or an error message for a bad header.
func claimsFromRequest(r *http.Request) (*auth.AppClaims, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, "Authorization header format must be Bearer {token}"
	}

	claims, err := auth.ParseJWT(parts[1])
	if err != nil {
		return nil, "Invalid token"
	}
	if len(claims.UserName()) > core.MaxOwnerLength {
		return nil, "User name is too long"
	}
	return claims, ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": msg})
}

// AuthJWT rejects requests without a valid bearer token.
func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, msg := claimsFromRequest(r)
		if msg != "" {
			unauthorized(w, r, msg)
			return
		}
		if claims == nil {
			unauthorized(w, r, "Authorization header is required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalJWT attaches the caller when a valid token is sent and lets
// anonymous requests through. A malformed or invalid token is still rejected.
func OptionalJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, msg := claimsFromRequest(r)
		if msg != "" {
			unauthorized(w, r, msg)
			return
		}
		if claims != nil {
			r = r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims))
		}
		next.ServeHTTP(w, r)
	})
}

// UserName returns the authenticated caller, or the anonymous owner.
func UserName(ctx context.Context) core.Owner {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.AppClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserName()
}
