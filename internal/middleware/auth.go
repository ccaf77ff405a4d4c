package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dkrasnov/feed-service/internal/auth"
)

// extractBearerToken pulls the token out of an "Authorization: Bearer <token>"
// header. The second return value is an error message, empty on success.
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "Not authenticated"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Not authenticated"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "Not authenticated"
	}
	return token, ""
}

// AuthMiddleware verifies the bearer token on every request and attaches the
// resolved identity to the request context. Missing, malformed, or failed
// verification short-circuits with 401 before the handler runs.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				unauthorized(w, errMsg)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				unauthorized(w, "Not authenticated")
				return
			}

			identity := &auth.Identity{UserID: claims.UserID, Email: claims.Email}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
