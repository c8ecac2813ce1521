package httpx

import (
	"context"
	"log"
	"net/http"
	"strings"

	"booksampler/internal/platform/crypto"
)

// RevocationList reports tokens that were logged out before they expired.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware admits requests carrying a valid, unrevoked bearer token and
// stores the caller's id and role on the context.
func AuthMiddleware(secret string, revoked RevocationList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}

			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					log.Printf("auth: request_id=%s revocation check error=%v", RequestIDFrom(r), err)
					JSONError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "Cannot verify token", nil)
					return
				}
				if isRevoked {
					JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Token has been revoked", nil)
					return
				}
			}

			ctx := ContextWithUser(r.Context(), userID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
