package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// In-memory store implementations mirroring the Mongo/Postgres semantics:
// tenant-scoped lookups, not-found for cross-tenant references, stable
// insertion order for created_at ties.

type memGroupStore struct {
	mu     sync.Mutex
	groups map[string]*models.GroupConversation
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{groups: make(map[string]*models.GroupConversation)}
}

func (s *memGroupStore) find(tenantID, groupID string) *models.GroupConversation {
	g, ok := s.groups[groupID]
	if !ok || g.TenantID != tenantID || !g.IsActive {
		return nil
	}
	return g
}

func (s *memGroupStore) InsertGroup(ctx context.Context, g *models.GroupConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	cp := *g
	s.groups[g.ID.Hex()] = &cp
	return nil
}

func (s *memGroupStore) GetGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}
	cp := *g
	cp.Members = append([]models.Membership(nil), g.Members...)
	return &cp, nil
}

func (s *memGroupStore) FindGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.TenantID != tenantID {
		return nil, apperr.NotFound("group not found")
	}
	cp := *g
	cp.Members = append([]models.Membership(nil), g.Members...)
	return &cp, nil
}

func (s *memGroupStore) ListGroupsForUser(ctx context.Context, tenantID, userID string) ([]models.GroupConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GroupConversation
	for _, g := range s.groups {
		if g.TenantID != tenantID || !g.IsActive || !g.HasMember(userID) {
			continue
		}
		cp := *g
		cp.Members = append([]models.Membership(nil), g.Members...)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (s *memGroupStore) UpdateGroup(ctx context.Context, tenantID, groupID, name, description, photoURL string, members []models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("group not found")
	}
	g.Name = name
	g.Description = description
	g.PhotoURL = photoURL
	g.Members = append([]models.Membership(nil), members...)
	g.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memGroupStore) DeactivateGroup(ctx context.Context, tenantID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("group not found")
	}
	g.IsActive = false
	return nil
}

func (s *memGroupStore) RemoveMember(ctx context.Context, tenantID, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("group not found")
	}
	for i, m := range g.Members {
		if m.UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("membership not found")
}

func (s *memGroupStore) RecordActivity(ctx context.Context, tenantID, groupID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("group not found")
	}
	if at.After(g.LastActivityAt) {
		g.LastActivityAt = at
	}
	g.TotalMessageCount++
	return nil
}

func (s *memGroupStore) IncrementUnread(ctx context.Context, tenantID, groupID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return 0, apperr.NotFound("membership not found")
	}
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			g.Members[i].UnreadCount++
			return g.Members[i].UnreadCount, nil
		}
	}
	return 0, apperr.NotFound("membership not found")
}

func (s *memGroupStore) ResetUnread(ctx context.Context, tenantID, groupID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("membership not found")
	}
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			g.Members[i].UnreadCount = 0
			g.Members[i].LastReadAt = at
			return nil
		}
	}
	return apperr.NotFound("membership not found")
}

func (s *memGroupStore) SetMuted(ctx context.Context, tenantID, groupID, userID string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.find(tenantID, groupID)
	if g == nil {
		return apperr.NotFound("membership not found")
	}
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			g.Members[i].IsMuted = muted
			return nil
		}
	}
	return apperr.NotFound("membership not found")
}

type memMessageStore struct {
	mu     sync.Mutex
	group  []*models.GroupMessage
	direct []*models.DirectMessage
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{}
}

func (s *memMessageStore) InsertGroupMessage(ctx context.Context, m *models.GroupMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	cp := *m
	s.group = append(s.group, &cp)
	return nil
}

func (s *memMessageStore) GroupMessage(ctx context.Context, tenantID, messageID string) (*models.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.group {
		if m.ID.Hex() == messageID && m.TenantID == tenantID && !m.IsDeleted {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("message not found")
}

func (s *memMessageStore) ListGroupMessages(ctx context.Context, tenantID, groupID string, before *time.Time, limit int64) ([]models.GroupMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []models.GroupMessage
	for _, m := range s.group {
		if m.TenantID != tenantID || m.GroupID != groupID || m.IsDeleted {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		eligible = append(eligible, *m)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	hasMore := int64(len(eligible)) > limit
	if hasMore {
		eligible = eligible[int64(len(eligible))-limit:]
	}
	// Newest-first, like the real store.
	for i, j := 0, len(eligible)-1; i < j; i, j = i+1, j-1 {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible, hasMore, nil
}

func (s *memMessageStore) LastGroupMessage(ctx context.Context, tenantID, groupID string) (*models.GroupMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *models.GroupMessage
	for _, m := range s.group {
		if m.TenantID != tenantID || m.GroupID != groupID || m.IsDeleted {
			continue
		}
		if last == nil || !m.CreatedAt.Before(last.CreatedAt) {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (s *memMessageStore) UpdateGroupMessageText(ctx context.Context, tenantID, messageID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.group {
		if m.ID.Hex() == messageID && m.TenantID == tenantID && !m.IsDeleted {
			m.Text = text
			m.IsEdited = true
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (s *memMessageStore) DeleteGroupMessage(ctx context.Context, tenantID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.group {
		if m.ID.Hex() == messageID && m.TenantID == tenantID {
			s.group = append(s.group[:i], s.group[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (s *memMessageStore) MarkGroupMessagesDeleted(ctx context.Context, tenantID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.group {
		if m.TenantID == tenantID && m.GroupID == groupID {
			m.IsDeleted = true
		}
	}
	return nil
}

func (s *memMessageStore) InsertDirectMessage(ctx context.Context, m *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	cp := *m
	s.direct = append(s.direct, &cp)
	return nil
}

func (s *memMessageStore) DirectMessage(ctx context.Context, tenantID, messageID string) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.direct {
		if m.ID.Hex() == messageID && m.TenantID == tenantID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("message not found")
}

func (s *memMessageStore) ListDirectMessages(ctx context.Context, tenantID, directKey string, before *time.Time, limit int64) ([]models.DirectMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []models.DirectMessage
	for _, m := range s.direct {
		if m.TenantID != tenantID || m.DirectKey != directKey {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		eligible = append(eligible, *m)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	hasMore := int64(len(eligible)) > limit
	if hasMore {
		eligible = eligible[int64(len(eligible))-limit:]
	}
	for i, j := 0, len(eligible)-1; i < j; i, j = i+1, j-1 {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible, hasMore, nil
}

func (s *memMessageStore) LastDirectMessage(ctx context.Context, tenantID, directKey string) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *models.DirectMessage
	for _, m := range s.direct {
		if m.TenantID != tenantID || m.DirectKey != directKey {
			continue
		}
		if last == nil || !m.CreatedAt.Before(last.CreatedAt) {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (s *memMessageStore) UpdateDirectMessageText(ctx context.Context, tenantID, messageID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.direct {
		if m.ID.Hex() == messageID && m.TenantID == tenantID {
			m.Text = text
			m.IsEdited = true
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (s *memMessageStore) DeleteDirectMessage(ctx context.Context, tenantID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.direct {
		if m.ID.Hex() == messageID && m.TenantID == tenantID {
			s.direct = append(s.direct[:i], s.direct[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("message not found")
}

func (s *memMessageStore) MarkDirectRead(ctx context.Context, tenantID, receiverID, senderID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.direct {
		if m.TenantID == tenantID && m.ReceiverID == receiverID && m.SenderID == senderID && m.ReadAt == nil {
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (s *memMessageStore) CountDirectUnread(ctx context.Context, tenantID, receiverID, senderID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.direct {
		if m.TenantID == tenantID && m.ReceiverID == receiverID && m.SenderID == senderID && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type memDirectory struct {
	users []models.User
}

func (d *memDirectory) User(ctx context.Context, tenantID, userID string) (*models.User, error) {
	for _, u := range d.users {
		if u.ID == userID && u.TenantID == tenantID && u.IsActive {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (d *memDirectory) ActiveEmployees(ctx context.Context, tenantID string, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		for _, u := range d.users {
			if u.ID == id && u.TenantID == tenantID && u.IsActive && u.Role == models.RoleEmployee {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (d *memDirectory) TenantUsers(ctx context.Context, tenantID string, employeesOnly bool) ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		if u.TenantID != tenantID || !u.IsActive {
			continue
		}
		if employeesOnly && u.Role != models.RoleEmployee {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type publishedEvent struct {
	UserID string
	Event  models.Event
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (d *captureDispatcher) Publish(ctx context.Context, userID string, evt models.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, publishedEvent{UserID: userID, Event: evt})
	return nil
}

func (d *captureDispatcher) eventsFor(userID string, evtType string) []models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Event
	for _, e := range d.events {
		if e.UserID == userID && e.Event.Type == evtType {
			out = append(out, e.Event)
		}
	}
	return out
}

type sentNotification struct {
	UserID string
	Title  string
	Body   string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *captureNotifier) Notify(ctx context.Context, userID, title, body string, metadata map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Body: body})
	return nil
}

func (n *captureNotifier) sentTo(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}
