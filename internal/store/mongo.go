package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
)

const (
	groupsCollection         = "group_conversations"
	groupMessagesCollection  = "group_messages"
	directMessagesCollection = "direct_messages"
)

// Mongo implements GroupStore and MessageStore on MongoDB collections.
type Mongo struct {
	groups         *mongo.Collection
	groupMessages  *mongo.Collection
	directMessages *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		groups:         db.Collection(groupsCollection),
		groupMessages:  db.Collection(groupMessagesCollection),
		directMessages: db.Collection(directMessagesCollection),
	}
}

// EnsureIndexes configures the indexes backing pagination and unread
// queries. Called on startup after Mongo has connected.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	groupIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "members.user_id", Value: 1},
				{Key: "last_activity_at", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_member_activity"),
		},
	}
	if _, err := s.groups.Indexes().CreateMany(ctx, groupIndexes); err != nil {
		return err
	}

	groupMsgIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "group_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_group_created"),
		},
	}
	if _, err := s.groupMessages.Indexes().CreateMany(ctx, groupMsgIndexes); err != nil {
		return err
	}

	directIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "direct_key", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_tenant_key_created"),
		},
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "receiver_id", Value: 1},
				{Key: "sender_id", Value: 1},
				{Key: "read_at", Value: 1},
			},
			Options: options.Index().SetName("idx_tenant_receiver_unread"),
		},
	}
	if _, err := s.directMessages.Indexes().CreateMany(ctx, directIndexes); err != nil {
		return err
	}

	return nil
}

// parseObjectID maps malformed ids to not-found so callers never reveal
// whether an id was syntactically valid.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("resource not found")
	}
	return oid, nil
}
