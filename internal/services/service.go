// Package services implements the messaging core: access rules, group and
// direct conversations, read-state bookkeeping, and best-effort fan-out.
// Capabilities (store, dispatcher, notifier) are injected so the core runs
// without a live transport.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// Dispatcher publishes a live event on one user's channel. Delivery is
// best-effort; callers log failures and never propagate them.
type Dispatcher interface {
	Publish(ctx context.Context, userID string, evt models.Event) error
}

const notificationPreviewLimit = 120

// normalizeText trims and validates message text against the 1–1000
// character contract. Length is counted in runes.
func normalizeText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", apperr.Validation("message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return "", apperr.Validation("message text must be at most 1000 characters")
	}
	return text, nil
}

// normalizeType validates a client-supplied message type. System messages
// are backend-generated only.
func normalizeType(t models.MessageType) (models.MessageType, error) {
	switch t {
	case "":
		return models.MessageTypeText, nil
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeFile:
		return t, nil
	case models.MessageTypeSystem:
		return "", apperr.Validation("system messages cannot be sent by clients")
	default:
		return "", apperr.Validation("unknown message type")
	}
}

// preview shortens message text for a notification body.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= notificationPreviewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:notificationPreviewLimit]) + "…"
}

// dedupeIDs collapses duplicate ids, preserving first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
