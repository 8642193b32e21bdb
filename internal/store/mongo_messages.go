package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

func (s *Mongo) InsertGroupMessage(ctx context.Context, m *models.GroupMessage) error {
	res, err := s.groupMessages.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (s *Mongo) GroupMessage(ctx context.Context, tenantID, messageID string) (*models.GroupMessage, error) {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return nil, err
	}

	var m models.GroupMessage
	err = s.groupMessages.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_deleted": false}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, err
	}
	return &m, nil
}

// ListGroupMessages fetches a page newest-first (limit+1 to detect more)
// for the caller to reverse into chronological order.
func (s *Mongo) ListGroupMessages(ctx context.Context, tenantID, groupID string, before *time.Time, limit int64) ([]models.GroupMessage, bool, error) {
	filter := bson.M{
		"tenant_id":  tenantID,
		"group_id":   groupID,
		"is_deleted": false,
	}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.groupMessages.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []models.GroupMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	return msgs, hasMore, nil
}

func (s *Mongo) LastGroupMessage(ctx context.Context, tenantID, groupID string) (*models.GroupMessage, error) {
	filter := bson.M{"tenant_id": tenantID, "group_id": groupID, "is_deleted": false}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var m models.GroupMessage
	if err := s.groupMessages.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *Mongo) UpdateGroupMessageText(ctx context.Context, tenantID, messageID, text string) error {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"text": text, "is_edited": true}}
	res, err := s.groupMessages.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_deleted": false}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (s *Mongo) DeleteGroupMessage(ctx context.Context, tenantID, messageID string) error {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return err
	}

	res, err := s.groupMessages.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

// MarkGroupMessagesDeleted flags every message of a group, retaining the
// documents for audit while removing them from reads.
func (s *Mongo) MarkGroupMessagesDeleted(ctx context.Context, tenantID, groupID string) error {
	filter := bson.M{"tenant_id": tenantID, "group_id": groupID}
	_, err := s.groupMessages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_deleted": true}})
	return err
}

func (s *Mongo) InsertDirectMessage(ctx context.Context, m *models.DirectMessage) error {
	res, err := s.directMessages.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (s *Mongo) DirectMessage(ctx context.Context, tenantID, messageID string) (*models.DirectMessage, error) {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return nil, err
	}

	var m models.DirectMessage
	err = s.directMessages.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, err
	}
	return &m, nil
}

func (s *Mongo) ListDirectMessages(ctx context.Context, tenantID, directKey string, before *time.Time, limit int64) ([]models.DirectMessage, bool, error) {
	filter := bson.M{"tenant_id": tenantID, "direct_key": directKey}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.directMessages.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []models.DirectMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	return msgs, hasMore, nil
}

func (s *Mongo) LastDirectMessage(ctx context.Context, tenantID, directKey string) (*models.DirectMessage, error) {
	filter := bson.M{"tenant_id": tenantID, "direct_key": directKey}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var m models.DirectMessage
	if err := s.directMessages.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *Mongo) UpdateDirectMessageText(ctx context.Context, tenantID, messageID, text string) error {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"text": text, "is_edited": true}}
	res, err := s.directMessages.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (s *Mongo) DeleteDirectMessage(ctx context.Context, tenantID, messageID string) error {
	oid, err := parseObjectID(messageID)
	if err != nil {
		return err
	}

	res, err := s.directMessages.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (s *Mongo) MarkDirectRead(ctx context.Context, tenantID, receiverID, senderID string, at time.Time) (int64, error) {
	filter := bson.M{
		"tenant_id":   tenantID,
		"receiver_id": receiverID,
		"sender_id":   senderID,
		"read_at":     nil,
	}
	res, err := s.directMessages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read_at": at.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Mongo) CountDirectUnread(ctx context.Context, tenantID, receiverID, senderID string) (int64, error) {
	filter := bson.M{
		"tenant_id":   tenantID,
		"receiver_id": receiverID,
		"sender_id":   senderID,
		"read_at":     nil,
	}
	return s.directMessages.CountDocuments(ctx, filter)
}
