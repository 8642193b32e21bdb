package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
	"github.com/hivedesk/hivedesk-backend/internal/notify"
	"github.com/hivedesk/hivedesk-backend/internal/store"
)

// DirectService implements one-to-one messaging. There is no stored
// conversation entity; a thread exists whenever messages with its key do,
// and the participant set is immutable by construction.
type DirectService struct {
	messages store.MessageStore
	users    store.UserDirectory
	dispatch Dispatcher
	notifier notify.Notifier
}

func NewDirectService(messages store.MessageStore, users store.UserDirectory, dispatch Dispatcher, notifier notify.Notifier) *DirectService {
	return &DirectService{messages: messages, users: users, dispatch: dispatch, notifier: notifier}
}

// DirectConversation is one row of the conversation overview: the peer,
// how many of their messages the caller has not read, and the latest
// message either way.
type DirectConversation struct {
	User        models.User           `json:"user"`
	UnreadCount int64                 `json:"unread_count"`
	LastMessage *models.DirectMessage `json:"last_message,omitempty"`
}

// ListConversations returns one entry per reachable peer, whether or not
// any messages have been exchanged. Employees see everyone in the tenant;
// admins see employees only.
func (s *DirectService) ListConversations(ctx context.Context, p models.Principal) ([]DirectConversation, error) {
	peers, err := s.users.TenantUsers(ctx, p.TenantID, isAdmin(p))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]DirectConversation, 0, len(peers))
	for _, peer := range peers {
		if peer.ID == p.ID {
			continue
		}
		conv := DirectConversation{User: peer}

		unread, err := s.messages.CountDirectUnread(ctx, p.TenantID, p.ID, peer.ID)
		if err != nil {
			log.Printf("direct: failed to count unread from %s for %s: %v", peer.ID, p.ID, err)
		} else {
			conv.UnreadCount = unread
		}

		key := models.DirectKey(p.TenantID, p.ID, peer.ID)
		last, err := s.messages.LastDirectMessage(ctx, p.TenantID, key)
		if err != nil {
			log.Printf("direct: failed to load last message for %s: %v", key, err)
		} else {
			conv.LastMessage = last
		}

		out = append(out, conv)
	}

	// Unread threads first, then most recent activity, then username.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UnreadCount != out[j].UnreadCount {
			return out[i].UnreadCount > out[j].UnreadCount
		}
		ti, tj := lastMessageTime(out[i].LastMessage), lastMessageTime(out[j].LastMessage)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].User.Username < out[j].User.Username
	})

	return out, nil
}

func lastMessageTime(m *models.DirectMessage) time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.CreatedAt
}

// Send appends one message to the thread with userID. The durable insert
// alone defines success; delivery and notification are best-effort.
func (s *DirectService) Send(ctx context.Context, p models.Principal, userID string, in SendMessageInput) (*models.DirectMessage, error) {
	if userID == p.ID {
		return nil, apperr.Validation("cannot message yourself")
	}
	peer, err := s.users.User(ctx, p.TenantID, userID)
	if err != nil {
		return nil, err
	}

	text, err := normalizeText(in.Text)
	if err != nil {
		return nil, err
	}
	msgType, err := normalizeType(in.Type)
	if err != nil {
		return nil, err
	}

	key := models.DirectKey(p.TenantID, p.ID, peer.ID)

	var reply *models.ReplySnapshot
	if in.ReplyTo != "" {
		orig, err := s.messages.DirectMessage(ctx, p.TenantID, in.ReplyTo)
		if err != nil {
			return nil, err
		}
		if orig.DirectKey != key {
			return nil, apperr.NotFound("message not found")
		}
		reply = &models.ReplySnapshot{
			MessageID:  orig.ID.Hex(),
			SenderName: orig.SenderName,
			Text:       orig.Text,
		}
	}

	msg := &models.DirectMessage{
		TenantID:   p.TenantID,
		DirectKey:  key,
		SenderID:   p.ID,
		ReceiverID: peer.ID,
		SenderName: s.displayName(ctx, p.TenantID, p.ID),
		Text:       text,
		Type:       msgType,
		Attachment: in.Attachment,
		ReplyTo:    reply,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.InsertDirectMessage(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}

	s.publish(ctx, peer.ID, models.Event{Type: models.EventDirectMessage, UserID: p.ID, Message: msg})

	if count, err := s.messages.CountDirectUnread(ctx, p.TenantID, peer.ID, p.ID); err != nil {
		log.Printf("direct: failed to count unread for %s from %s: %v", peer.ID, p.ID, err)
	} else {
		s.publish(ctx, peer.ID, models.DirectUnreadEvent(p.ID, int(count)))
	}

	err = s.notifier.Notify(ctx, peer.ID, msg.SenderName, preview(msg.Text), map[string]string{
		"sender_id": p.ID,
	})
	if err != nil {
		log.Printf("direct: failed to notify user %s: %v", peer.ID, err)
	}

	return msg, nil
}

// ListMessages returns a chronological page of the thread with userID
// and, as a side effect, marks the peer's messages to the caller as read.
func (s *DirectService) ListMessages(ctx context.Context, p models.Principal, userID string, before *time.Time, limit int64) ([]models.DirectMessage, bool, error) {
	peer, err := s.users.User(ctx, p.TenantID, userID)
	if err != nil {
		return nil, false, err
	}

	key := models.DirectKey(p.TenantID, p.ID, peer.ID)
	msgs, hasMore, err := s.messages.ListDirectMessages(ctx, p.TenantID, key, before, clampLimit(limit))
	if err != nil {
		return nil, false, apperr.Internal(err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if _, err := s.messages.MarkDirectRead(ctx, p.TenantID, p.ID, peer.ID, time.Now().UTC()); err != nil {
		log.Printf("direct: failed to mark messages read from %s for %s: %v", peer.ID, p.ID, err)
	} else {
		s.publish(ctx, p.ID, models.DirectUnreadEvent(peer.ID, 0))
	}

	return msgs, hasMore, nil
}

// EditMessage rewrites a direct message's text. Sender-only.
func (s *DirectService) EditMessage(ctx context.Context, p models.Principal, messageID, text string) (*models.DirectMessage, error) {
	msg, err := s.messages.DirectMessage(ctx, p.TenantID, messageID)
	if err != nil {
		return nil, err
	}
	if !IsDirectParticipant(p, msg) {
		return nil, apperr.NotFound("message not found")
	}
	if msg.SenderID != p.ID {
		return nil, apperr.AccessDenied("only the sender can edit a message")
	}

	normalized, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	if err := s.messages.UpdateDirectMessageText(ctx, p.TenantID, messageID, normalized); err != nil {
		return nil, apperr.Internal(err)
	}

	msg.Text = normalized
	msg.IsEdited = true
	return msg, nil
}

// DeleteMessage hard-deletes a direct message. Sender-only, admins have
// no special power over direct threads.
func (s *DirectService) DeleteMessage(ctx context.Context, p models.Principal, messageID string) error {
	msg, err := s.messages.DirectMessage(ctx, p.TenantID, messageID)
	if err != nil {
		return err
	}
	if !IsDirectParticipant(p, msg) {
		return apperr.NotFound("message not found")
	}
	if msg.SenderID != p.ID {
		return apperr.AccessDenied("only the sender can delete a message")
	}

	if err := s.messages.DeleteDirectMessage(ctx, p.TenantID, messageID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *DirectService) displayName(ctx context.Context, tenantID, userID string) string {
	u, err := s.users.User(ctx, tenantID, userID)
	if err != nil {
		return userID
	}
	return u.Name()
}

func (s *DirectService) publish(ctx context.Context, userID string, evt models.Event) {
	if err := s.dispatch.Publish(ctx, userID, evt); err != nil {
		log.Printf("direct: failed to publish %s event to user %s: %v", evt.Type, userID, err)
	}
}
