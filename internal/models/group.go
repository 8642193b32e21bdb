package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership is one user's participation record inside a group
// conversation, embedded in the conversation document. The membership set
// is keyed uniquely by user id; every mutation rewrites or targets exactly
// one entry. UnreadCount and LastReadAt form the coarse read cursor for
// groups.
type Membership struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
	UnreadCount int       `bson:"unread_count" json:"unread_count"`
	LastReadAt  time.Time `bson:"last_read_at,omitempty" json:"last_read_at,omitempty"`
	IsMuted     bool      `bson:"is_muted" json:"is_muted"`
}

// GroupConversation is a multi-member channel stored in MongoDB, one
// document per group with the membership array embedded. IsActive flips
// false on delete; messages are kept but flagged. LastActivityAt only
// moves forward.
type GroupConversation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID          string             `bson:"tenant_id" json:"tenant_id"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	PhotoURL          string             `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Members           []Membership       `bson:"members" json:"members"`
	CreatedBy         string             `bson:"created_by" json:"created_by"`
	IsActive          bool               `bson:"is_active" json:"is_active"`
	LastActivityAt    time.Time          `bson:"last_activity_at" json:"last_activity_at"`
	TotalMessageCount int64              `bson:"total_message_count" json:"total_message_count"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// Member returns the membership entry for userID, or nil.
func (g *GroupConversation) Member(userID string) *Membership {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// HasMember reports whether userID is in the membership set.
func (g *GroupConversation) HasMember(userID string) bool {
	return g.Member(userID) != nil
}

// DedupedMembers returns the membership set with duplicate user ids
// collapsed (first entry wins). Duplicates should never be written, but
// reads defend against historical documents.
func (g *GroupConversation) DedupedMembers() []Membership {
	seen := make(map[string]struct{}, len(g.Members))
	out := make([]Membership, 0, len(g.Members))
	for _, m := range g.Members {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		out = append(out, m)
	}
	return out
}
