package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
	"github.com/hivedesk/hivedesk-backend/internal/notify"
	"github.com/hivedesk/hivedesk-backend/internal/store"
)

// GroupService owns group conversations: identity, membership
// reconciliation, the message log and per-member read state.
type GroupService struct {
	groups   store.GroupStore
	messages store.MessageStore
	users    store.UserDirectory
	dispatch Dispatcher
	notifier notify.Notifier
}

func NewGroupService(groups store.GroupStore, messages store.MessageStore, users store.UserDirectory, dispatch Dispatcher, notifier notify.Notifier) *GroupService {
	return &GroupService{
		groups:   groups,
		messages: messages,
		users:    users,
		dispatch: dispatch,
		notifier: notifier,
	}
}

type CreateGroupInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Photo       string   `json:"photo,omitempty"`
	MemberIDs   []string `json:"member_ids"`
}

// UpdateGroupInput carries the full desired state of a group. Description
// and Photo are pointers so an absent field keeps the prior value while an
// empty string clears it.
type UpdateGroupInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Photo       *string  `json:"photo,omitempty"`
	MemberIDs   []string `json:"member_ids"`
}

// GroupSummary is a list-view row: the conversation augmented with the
// caller's read state and a last-message preview.
type GroupSummary struct {
	models.GroupConversation
	LastMessage *models.GroupMessage `json:"last_message,omitempty"`
	UnreadCount int                  `json:"unread_count"`
	IsMuted     bool                 `json:"is_muted"`
}

// CreateGroup validates the member list all-or-nothing against the tenant
// directory and creates the group with the creator force-added.
func (s *GroupService) CreateGroup(ctx context.Context, p models.Principal, in CreateGroupInput) (*models.GroupConversation, error) {
	if !CanManageGroup(p) {
		return nil, apperr.AccessDenied("only admins can create groups")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	ids := dedupeIDs(in.MemberIDs)
	ids = withoutID(ids, p.ID) // creator is added separately
	if len(ids) == 0 {
		return nil, apperr.Validation("at least one member is required")
	}

	resolved, err := s.users.ActiveEmployees(ctx, p.TenantID, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(resolved) != len(ids) {
		return nil, apperr.Validation("all members must be active employees of the company")
	}

	now := time.Now().UTC()
	members := []models.Membership{{UserID: p.ID, JoinedAt: now}}
	for _, u := range resolved {
		members = append(members, models.Membership{UserID: u.ID, JoinedAt: now})
	}

	g := &models.GroupConversation{
		TenantID:       p.TenantID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		PhotoURL:       in.Photo,
		Members:        members,
		CreatedBy:      p.ID,
		IsActive:       true,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.groups.InsertGroup(ctx, g); err != nil {
		return nil, apperr.Internal(err)
	}
	return g, nil
}

// UpdateGroup applies the membership reconciliation: requested members
// keep their prior metadata when they already belong, get fresh metadata
// otherwise, the creator is force-included, and everyone else is dropped.
// The whole reconciled set is written in one update or not at all.
func (s *GroupService) UpdateGroup(ctx context.Context, p models.Principal, groupID string, in UpdateGroupInput) (*models.GroupConversation, error) {
	g, err := s.groups.GetGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return nil, err
	}
	if !CanManageGroup(p) {
		return nil, apperr.AccessDenied("only admins can update groups")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	ids := dedupeIDs(in.MemberIDs)
	ids = withoutID(ids, g.CreatedBy)

	resolved, err := s.users.ActiveEmployees(ctx, p.TenantID, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(resolved) != len(ids) {
		return nil, apperr.Validation("all members must be active employees of the company")
	}

	now := time.Now().UTC()

	// Creator first, with prior metadata. The creator invariant holds
	// even against documents written before it was enforced.
	members := make([]models.Membership, 0, len(ids)+1)
	if prior := g.Member(g.CreatedBy); prior != nil {
		members = append(members, *prior)
	} else {
		members = append(members, models.Membership{UserID: g.CreatedBy, JoinedAt: now})
	}

	for _, id := range ids {
		if prior := g.Member(id); prior != nil {
			members = append(members, *prior)
		} else {
			members = append(members, models.Membership{UserID: id, JoinedAt: now})
		}
	}

	photo := g.PhotoURL
	if in.Photo != nil {
		photo = *in.Photo
	}
	description := g.Description
	if in.Description != nil {
		description = strings.TrimSpace(*in.Description)
	}

	if err := s.groups.UpdateGroup(ctx, p.TenantID, groupID, name, description, photo, members); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	g.Name = name
	g.Description = description
	g.PhotoURL = photo
	g.Members = members
	g.UpdatedAt = now
	return g, nil
}

// DeleteGroup soft-deletes the conversation and cascades a deleted flag
// onto every message it holds. Messages stay on disk for audit but
// disappear from reads.
func (s *GroupService) DeleteGroup(ctx context.Context, p models.Principal, groupID string) error {
	if _, err := s.groups.GetGroup(ctx, p.TenantID, groupID); err != nil {
		return err
	}
	if !CanManageGroup(p) {
		return apperr.AccessDenied("only admins can delete groups")
	}

	if err := s.groups.DeactivateGroup(ctx, p.TenantID, groupID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.Internal(err)
	}
	if err := s.messages.MarkGroupMessagesDeleted(ctx, p.TenantID, groupID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// LeaveGroup physically removes the caller's membership, posts a system
// message announcing the departure, and bumps every remaining member's
// unread counter. Everything after the membership removal is best-effort.
func (s *GroupService) LeaveGroup(ctx context.Context, p models.Principal, groupID string) error {
	g, err := s.groups.GetGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(p.ID) {
		return apperr.AccessDenied("you are not a member of this group")
	}

	if err := s.groups.RemoveMember(ctx, p.TenantID, groupID, p.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.Internal(err)
	}

	name := s.displayName(ctx, p.TenantID, p.ID)
	now := time.Now().UTC()
	msg := &models.GroupMessage{
		TenantID:   p.TenantID,
		GroupID:    groupID,
		SenderID:   p.ID,
		SenderName: name,
		Text:       name + " left the group",
		Type:       models.MessageTypeSystem,
		CreatedAt:  now,
	}
	if err := s.messages.InsertGroupMessage(ctx, msg); err != nil {
		log.Printf("groups: failed to record departure message for group %s: %v", groupID, err)
	}
	if err := s.groups.RecordActivity(ctx, p.TenantID, groupID, now); err != nil {
		log.Printf("groups: failed to bump activity for group %s: %v", groupID, err)
	}

	for _, m := range g.DedupedMembers() {
		if m.UserID == p.ID {
			continue
		}
		s.bumpUnread(ctx, p.TenantID, groupID, m.UserID)
		s.publish(ctx, m.UserID, models.Event{Type: models.EventGroupMessage, GroupID: groupID, Message: msg})
	}
	return nil
}

// SetMuted toggles the caller's mute flag for a group. Muted members keep
// receiving live events and unread increments; only notifications stop.
func (s *GroupService) SetMuted(ctx context.Context, p models.Principal, groupID string, muted bool) error {
	g, err := s.groups.GetGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(p.ID) {
		return apperr.AccessDenied("you are not a member of this group")
	}

	if err := s.groups.SetMuted(ctx, p.TenantID, groupID, p.ID, muted); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return apperr.Internal(err)
	}
	return nil
}

// ListMine returns the caller's active groups, most recently active
// first, with last-message previews and the caller's read state.
func (s *GroupService) ListMine(ctx context.Context, p models.Principal) ([]GroupSummary, error) {
	groups, err := s.groups.ListGroupsForUser(ctx, p.TenantID, p.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		g.Members = g.DedupedMembers()

		last, err := s.messages.LastGroupMessage(ctx, p.TenantID, g.ID.Hex())
		if err != nil {
			log.Printf("groups: failed to load last message for group %s: %v", g.ID.Hex(), err)
		}

		summary := GroupSummary{GroupConversation: g, LastMessage: last}
		if m := g.Member(p.ID); m != nil {
			summary.UnreadCount = m.UnreadCount
			summary.IsMuted = m.IsMuted
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastActivityAt.After(summaries[j].LastActivityAt)
	})
	return summaries, nil
}

// GetGroup returns one group for a member or an admin, with the member
// list de-duplicated.
func (s *GroupService) GetGroup(ctx context.Context, p models.Principal, groupID string) (*models.GroupConversation, error) {
	g, err := s.groups.GetGroup(ctx, p.TenantID, groupID)
	if err != nil {
		return nil, err
	}
	if !CanReadGroup(p, g) {
		return nil, apperr.AccessDenied("you do not have access to this group")
	}
	g.Members = g.DedupedMembers()
	return g, nil
}

// displayName resolves a user's human-readable name, falling back to the
// raw id when the directory is unavailable.
func (s *GroupService) displayName(ctx context.Context, tenantID, userID string) string {
	u, err := s.users.User(ctx, tenantID, userID)
	if err != nil {
		return userID
	}
	return u.Name()
}

// bumpUnread increments one member's counter via a single-record update
// and emits the coalescable unread event. Failure affects that member
// only and is never retried.
func (s *GroupService) bumpUnread(ctx context.Context, tenantID, groupID, userID string) {
	count, err := s.groups.IncrementUnread(ctx, tenantID, groupID, userID)
	if err != nil {
		log.Printf("groups: failed to increment unread for user %s in group %s: %v", userID, groupID, err)
		return
	}
	s.publish(ctx, userID, models.GroupUnreadEvent(groupID, count))
}

func (s *GroupService) publish(ctx context.Context, userID string, evt models.Event) {
	if err := s.dispatch.Publish(ctx, userID, evt); err != nil {
		log.Printf("groups: failed to publish %s event to user %s: %v", evt.Type, userID, err)
	}
}

func withoutID(ids []string, drop string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
