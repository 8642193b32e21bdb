package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType classifies a message. System messages are generated by the
// backend only (e.g. membership departures) and are rejected from clients.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// MaxMessageLength bounds the trimmed message text.
const MaxMessageLength = 1000

// Attachment is the optional file payload of a message. URL points at the
// uploaded asset (Cloudinary).
type Attachment struct {
	URL      string `bson:"url" json:"url"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Size     int64  `bson:"size,omitempty" json:"size,omitempty"`
	MimeType string `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
}

// ReplySnapshot is a denormalized copy of the replied-to message taken at
// send time. It is never re-resolved, so it survives deletion of the
// original.
type ReplySnapshot struct {
	MessageID  string `bson:"message_id" json:"message_id"`
	SenderName string `bson:"sender_name" json:"sender_name"`
	Text       string `bson:"text" json:"text"`
}

// GroupMessage is one document in the group_messages collection.
// Timeline order is created_at ascending; ties fall back to insertion
// order, no sequence number is assigned.
type GroupMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   string             `bson:"tenant_id" json:"tenant_id"`
	GroupID    string             `bson:"group_id" json:"group_id"`
	SenderID   string             `bson:"sender_id" json:"sender_id"`
	SenderName string             `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	Text       string             `bson:"text" json:"text"`
	Type       MessageType        `bson:"type" json:"type"`
	Attachment *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	ReplyTo    *ReplySnapshot     `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	IsEdited   bool               `bson:"is_edited" json:"is_edited"`
	IsDeleted  bool               `bson:"is_deleted" json:"is_deleted"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// DirectMessage is one document in the direct_messages collection. There
// is no stored conversation entity; DirectKey identifies the thread.
// ReadAt is the per-message read marker, nil until the receiver fetches
// the thread.
type DirectMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   string             `bson:"tenant_id" json:"tenant_id"`
	DirectKey  string             `bson:"direct_key" json:"-"`
	SenderID   string             `bson:"sender_id" json:"sender_id"`
	ReceiverID string             `bson:"receiver_id" json:"receiver_id"`
	SenderName string             `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	Text       string             `bson:"text" json:"text"`
	Type       MessageType        `bson:"type" json:"type"`
	Attachment *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	ReplyTo    *ReplySnapshot     `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	IsEdited   bool               `bson:"is_edited" json:"is_edited"`
	ReadAt     *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// DirectKey derives the canonical identity of a direct conversation from
// the tenant and the unordered user pair. Both directions of a thread map
// to the same key, so queries and indexes never deal with mirrored
// records.
func DirectKey(tenantID, userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return tenantID + ":" + userA + ":" + userB
}
