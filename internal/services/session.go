package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// SessionKeyPrefix is the Redis key prefix under which the identity
// service stores principals, keyed by bearer token.
const SessionKeyPrefix = "session:"

// SessionService resolves bearer tokens to principals. Sessions are
// minted by the external identity service; this backend only reads them.
type SessionService struct {
	client *redis.Client
}

func NewSessionService(client *redis.Client) *SessionService {
	return &SessionService{client: client}
}

// Resolve returns the principal behind a session token. The stored value
// is JSON {user_id, role, tenant_id}; anything malformed is treated as an
// invalid session.
func (s *SessionService) Resolve(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, apperr.Unauthorized("missing session token")
	}

	raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Principal{}, apperr.Unauthorized("invalid session token")
		}
		return models.Principal{}, apperr.Internal(err)
	}

	var sess struct {
		UserID   string `json:"user_id"`
		Role     string `json:"role"`
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return models.Principal{}, apperr.Unauthorized("invalid session token")
	}

	role, err := models.ParseRole(sess.Role)
	if err != nil || sess.UserID == "" || sess.TenantID == "" {
		return models.Principal{}, apperr.Unauthorized("invalid session token")
	}

	return models.Principal{ID: sess.UserID, Role: role, TenantID: sess.TenantID}, nil
}
