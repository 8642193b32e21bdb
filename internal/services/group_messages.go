package services

import (
	"context"
	"log"
	"time"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

const defaultPageSize = 50

type SendMessageInput struct {
	Text       string             `json:"text"`
	Type       models.MessageType `json:"type,omitempty"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
	ReplyTo    string             `json:"reply_to,omitempty"`
}

// clampLimit normalizes a requested page size.
func clampLimit(limit int64) int64 {
	if limit <= 0 || limit > 100 {
		return defaultPageSize
	}
	return limit
}

// SendMessage appends one message to a group's log. Success is defined by
// the durable insert; the aggregate bump, unread increments, live events
// and notifications that follow are each best-effort.
func (s *GroupService) SendMessage(ctx context.Context, p models.Principal, groupID string, in SendMessageInput) (*models.GroupMessage, error) {
	g, err := s.groups.GetGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return nil, err
	}
	if !CanReadGroup(p, g) {
		return nil, apperr.AccessDenied("you must be a member of this group to send messages")
	}

	text, err := normalizeText(in.Text)
	if err != nil {
		return nil, err
	}
	msgType, err := normalizeType(in.Type)
	if err != nil {
		return nil, err
	}

	var reply *models.ReplySnapshot
	if in.ReplyTo != "" {
		orig, err := s.messages.GroupMessage(ctx, p.TenantID, in.ReplyTo)
		if err != nil {
			return nil, err
		}
		if orig.GroupID != groupID {
			return nil, apperr.NotFound("message not found")
		}
		reply = &models.ReplySnapshot{
			MessageID:  orig.ID.Hex(),
			SenderName: orig.SenderName,
			Text:       orig.Text,
		}
	}

	now := time.Now().UTC()
	msg := &models.GroupMessage{
		TenantID:   p.TenantID,
		GroupID:    groupID,
		SenderID:   p.ID,
		SenderName: s.displayName(ctx, p.TenantID, p.ID),
		Text:       text,
		Type:       msgType,
		Attachment: in.Attachment,
		ReplyTo:    reply,
		CreatedAt:  now,
	}
	if err := s.messages.InsertGroupMessage(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.groups.RecordActivity(ctx, p.TenantID, groupID, now); err != nil {
		log.Printf("groups: failed to bump activity for group %s: %v", groupID, err)
	}

	s.fanOutGroupMessage(ctx, g, msg)
	return msg, nil
}

// fanOutGroupMessage updates every other member's read state and attempts
// live delivery and a notification per recipient. One member's failure
// never blocks the others.
func (s *GroupService) fanOutGroupMessage(ctx context.Context, g *models.GroupConversation, msg *models.GroupMessage) {
	for _, m := range g.DedupedMembers() {
		if m.UserID == msg.SenderID {
			continue
		}

		s.bumpUnread(ctx, g.TenantID, msg.GroupID, m.UserID)
		s.publish(ctx, m.UserID, models.Event{Type: models.EventGroupMessage, GroupID: msg.GroupID, Message: msg})

		if m.IsMuted {
			continue
		}
		err := s.notifier.Notify(ctx, m.UserID, g.Name, msg.SenderName+": "+preview(msg.Text), map[string]string{
			"group_id":  msg.GroupID,
			"sender_id": msg.SenderID,
		})
		if err != nil {
			log.Printf("groups: failed to notify user %s for group %s: %v", m.UserID, msg.GroupID, err)
		}
	}
}

// ListMessages returns a chronological page of the group timeline and, as
// a side effect, resets the caller's unread counter (even when the page is
// empty). Deleted groups still answer: their messages carry the deleted
// flag, so the page comes back empty rather than not-found.
func (s *GroupService) ListMessages(ctx context.Context, p models.Principal, groupID string, before *time.Time, limit int64) ([]models.GroupMessage, bool, error) {
	g, err := s.groups.FindGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return nil, false, err
	}
	if !CanReadGroup(p, g) {
		return nil, false, apperr.AccessDenied("you do not have access to this group")
	}

	msgs, hasMore, err := s.messages.ListGroupMessages(ctx, p.TenantID, groupID, before, clampLimit(limit))
	if err != nil {
		return nil, false, apperr.Internal(err)
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if g.IsActive && g.HasMember(p.ID) {
		if err := s.groups.ResetUnread(ctx, p.TenantID, groupID, p.ID, time.Now().UTC()); err != nil {
			log.Printf("groups: failed to reset unread for user %s in group %s: %v", p.ID, groupID, err)
		} else {
			s.publish(ctx, p.ID, models.GroupUnreadEvent(groupID, 0))
		}
	}

	return msgs, hasMore, nil
}

// EditMessage rewrites a message's text. Sender-only; system messages are
// immutable.
func (s *GroupService) EditMessage(ctx context.Context, p models.Principal, groupID, messageID, text string) (*models.GroupMessage, error) {
	msg, err := s.messages.GroupMessage(ctx, p.TenantID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.GroupID != groupID {
		return nil, apperr.NotFound("message not found")
	}
	if msg.SenderID != p.ID || msg.Type == models.MessageTypeSystem {
		return nil, apperr.AccessDenied("only the sender can edit a message")
	}

	normalized, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	if err := s.messages.UpdateGroupMessageText(ctx, p.TenantID, messageID, normalized); err != nil {
		return nil, apperr.Internal(err)
	}

	msg.Text = normalized
	msg.IsEdited = true
	return msg, nil
}

// DeleteMessage hard-deletes a message, for the sender or an admin. The
// conversation-level soft delete does not apply at message granularity.
func (s *GroupService) DeleteMessage(ctx context.Context, p models.Principal, groupID, messageID string) error {
	msg, err := s.messages.GroupMessage(ctx, p.TenantID, messageID)
	if err != nil {
		return err
	}
	if msg.GroupID != groupID {
		return apperr.NotFound("message not found")
	}
	if !CanDeleteGroupMessage(p, msg) {
		return apperr.AccessDenied("only admins or the sender can delete a message")
	}

	if err := s.messages.DeleteGroupMessage(ctx, p.TenantID, messageID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
