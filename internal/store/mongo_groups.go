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

func (s *Mongo) InsertGroup(ctx context.Context, g *models.GroupConversation) error {
	res, err := s.groups.InsertOne(ctx, g)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		g.ID = oid
	}
	return nil
}

func (s *Mongo) GetGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error) {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true}

	var g models.GroupConversation
	if err := s.groups.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, err
	}
	return &g, nil
}

func (s *Mongo) FindGroup(ctx context.Context, tenantID, groupID string) (*models.GroupConversation, error) {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return nil, err
	}

	var g models.GroupConversation
	if err := s.groups.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, err
	}
	return &g, nil
}

func (s *Mongo) ListGroupsForUser(ctx context.Context, tenantID, userID string) ([]models.GroupConversation, error) {
	filter := bson.M{
		"tenant_id":       tenantID,
		"is_active":       true,
		"members.user_id": userID,
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_activity_at", Value: -1}})

	cur, err := s.groups.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.GroupConversation
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *Mongo) UpdateGroup(ctx context.Context, tenantID, groupID, name, description, photoURL string, members []models.Membership) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"name":        name,
		"description": description,
		"photo_url":   photoURL,
		"members":     members,
		"updated_at":  time.Now().UTC(),
	}}

	res, err := s.groups.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (s *Mongo) DeactivateGroup(ctx context.Context, tenantID, groupID string) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}}
	res, err := s.groups.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (s *Mongo) RemoveMember(ctx context.Context, tenantID, groupID, userID string) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.groups.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	if res.ModifiedCount == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}

func (s *Mongo) RecordActivity(ctx context.Context, tenantID, groupID string, at time.Time) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	// $max keeps last_activity_at monotonic under concurrent sends.
	update := bson.M{
		"$max": bson.M{"last_activity_at": at.UTC()},
		"$inc": bson.M{"total_message_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.groups.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (s *Mongo) IncrementUnread(ctx context.Context, tenantID, groupID, userID string) (int, error) {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return 0, err
	}

	filter := bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true, "members.user_id": userID}
	update := bson.M{"$inc": bson.M{"members.$.unread_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var g models.GroupConversation
	if err := s.groups.FindOneAndUpdate(ctx, filter, update, opts).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperr.NotFound("membership not found")
		}
		return 0, err
	}
	if m := g.Member(userID); m != nil {
		return m.UnreadCount, nil
	}
	return 0, apperr.NotFound("membership not found")
}

func (s *Mongo) ResetUnread(ctx context.Context, tenantID, groupID, userID string, at time.Time) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true, "members.user_id": userID}
	update := bson.M{"$set": bson.M{
		"members.$.unread_count": 0,
		"members.$.last_read_at": at.UTC(),
	}}
	res, err := s.groups.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}

func (s *Mongo) SetMuted(ctx context.Context, tenantID, groupID, userID string, muted bool) error {
	oid, err := parseObjectID(groupID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "tenant_id": tenantID, "is_active": true, "members.user_id": userID}
	update := bson.M{"$set": bson.M{"members.$.is_muted": muted}}
	res, err := s.groups.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}
