// Package store is the durable-storage boundary. Every write is one
// atomic single-record operation; there are no multi-record transactions.
// The interfaces exist so the messaging core can be exercised without a
// live database; Mongo backs conversations and messages, PostgreSQL backs
// the tenant user directory.
package store

import (
	"context"
	"time"

	"github.com/hivedesk/hivedesk-backend/internal/models"
)

// GroupStore persists group conversations and their embedded membership
// sets. All lookups are tenant-scoped, so a cross-tenant reference is
// indistinguishable from an absent one.
type GroupStore interface {
	InsertGroup(ctx context.Context, g *models.GroupConversation) error
	// GetGroup returns an active group or a not-found error.
	GetGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error)
	// FindGroup returns a group regardless of soft-delete state. Used by
	// read paths that must keep answering for deleted conversations.
	FindGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error)
	// ListGroupsForUser returns the active groups the user belongs to,
	// most recently active first.
	ListGroupsForUser(ctx context.Context, tenantID, userID string) ([]models.GroupConversation, error)
	// UpdateGroup rewrites the mutable fields and the whole reconciled
	// membership set in one document update.
	UpdateGroup(ctx context.Context, tenantID, groupID, name, description, photoURL string, members []models.Membership) error
	DeactivateGroup(ctx context.Context, tenantID, groupID string) error
	RemoveMember(ctx context.Context, tenantID, groupID, userID string) error
	// RecordActivity advances last_activity_at (never backwards) and
	// bumps the total message count.
	RecordActivity(ctx context.Context, tenantID, groupID string, at time.Time) error
	// IncrementUnread adds one to a single member's counter and returns
	// the new value.
	IncrementUnread(ctx context.Context, tenantID, groupID, userID string) (int, error)
	ResetUnread(ctx context.Context, tenantID, groupID, userID string, at time.Time) error
	SetMuted(ctx context.Context, tenantID, groupID, userID string, muted bool) error
}

// MessageStore persists the append-only message logs. Group messages
// soft-delete in bulk when their conversation is deleted and hard-delete
// individually; direct messages only ever hard-delete.
type MessageStore interface {
	InsertGroupMessage(ctx context.Context, m *models.GroupMessage) error
	GroupMessage(ctx context.Context, tenantID, messageID string) (*models.GroupMessage, error)
	// ListGroupMessages fetches a page newest-first and reports whether
	// older messages remain. Deleted messages are filtered out.
	ListGroupMessages(ctx context.Context, tenantID, groupID string, before *time.Time, limit int64) ([]models.GroupMessage, bool, error)
	LastGroupMessage(ctx context.Context, tenantID, groupID string) (*models.GroupMessage, error)
	UpdateGroupMessageText(ctx context.Context, tenantID, messageID, text string) error
	DeleteGroupMessage(ctx context.Context, tenantID, messageID string) error
	MarkGroupMessagesDeleted(ctx context.Context, tenantID, groupID string) error

	InsertDirectMessage(ctx context.Context, m *models.DirectMessage) error
	DirectMessage(ctx context.Context, tenantID, messageID string) (*models.DirectMessage, error)
	ListDirectMessages(ctx context.Context, tenantID, directKey string, before *time.Time, limit int64) ([]models.DirectMessage, bool, error)
	LastDirectMessage(ctx context.Context, tenantID, directKey string) (*models.DirectMessage, error)
	UpdateDirectMessageText(ctx context.Context, tenantID, messageID, text string) error
	DeleteDirectMessage(ctx context.Context, tenantID, messageID string) error
	// MarkDirectRead bulk-sets read_at on every unread message from
	// senderID to receiverID and returns how many were marked.
	MarkDirectRead(ctx context.Context, tenantID, receiverID, senderID string, at time.Time) (int64, error)
	CountDirectUnread(ctx context.Context, tenantID, receiverID, senderID string) (int64, error)
}

// UserDirectory resolves principals against the tenant user directory.
type UserDirectory interface {
	// User returns an active directory entry or a not-found error.
	User(ctx context.Context, tenantID, userID string) (*models.User, error)
	// ActiveEmployees resolves ids to active employees of the tenant.
	// Ids that don't resolve are simply absent from the result.
	ActiveEmployees(ctx context.Context, tenantID string, ids []string) ([]models.User, error)
	// TenantUsers lists the tenant's active users, optionally employees
	// only, sorted by username.
	TenantUsers(ctx context.Context, tenantID string, employeesOnly bool) ([]models.User, error)
}
