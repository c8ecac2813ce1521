package httpx

import (
	"crypto/subtle"
	"net/http"
)

const adminSecretHeader = "X-Admin-Secret"

// AdminSecretMiddleware admits requests whose X-Admin-Secret header equals
// secret. An empty secret disables the wrapped routes entirely.
func AdminSecretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "admin endpoints are disabled", nil)
				return
			}
			got := r.Header.Get(adminSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin secret", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
