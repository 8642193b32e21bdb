package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

type contextKey string

const principalKey contextKey = "principal"

// BearerToken extracts the session token from the Authorization header,
// falling back to the token query parameter for browser WebSocket clients
// that cannot set headers.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// Auth resolves the session token and stores the principal in the request
// context. Requests without a valid session get a 401 envelope.
func Auth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := sessions.Resolve(r.Context(), BearerToken(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(apperr.HTTPStatus(err))
				_ = json.NewEncoder(w).Encode(map[string]string{"message": apperr.PublicMessage(err)})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated principal placed by Auth.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}
