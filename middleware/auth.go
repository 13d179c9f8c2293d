package middleware

import (
	"log"
	"net/http"
	"strings"

	"rolebridge/appctx"
	"rolebridge/services"
)

// APIKeyAuthMiddleware authenticates requests with a bearer API key and
// places the resolved user entity on the request context
type APIKeyAuthMiddleware struct {
	usersService services.UsersService
}

func NewAPIKeyAuthMiddleware(usersService services.UsersService) *APIKeyAuthMiddleware {
	return &APIKeyAuthMiddleware{usersService: usersService}
}

// WithAuth wraps an HTTP handler with bearer API key authentication
func (m *APIKeyAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("❌ Missing Authorization header from %s", r.RemoteAddr)
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		apiKey, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || apiKey == "" {
			log.Printf("❌ Malformed Authorization header from %s", r.RemoteAddr)
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		maybeUser, err := m.usersService.GetUserByAPIKey(r.Context(), apiKey)
		if err != nil {
			log.Printf("❌ Failed to resolve API key: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		user, ok := maybeUser.Get()
		if !ok {
			log.Printf("❌ Unknown API key from %s", r.RemoteAddr)
			http.Error(w, "invalid api key", http.StatusUnauthorized)
			return
		}

		ctx := appctx.SetUser(r.Context(), user)
		next(w, r.WithContext(ctx))
	}
}
