// Package notificationstore owns the notifications collection: the durable
// half of the fanout contract. Realtime pushes are best effort; these
// records are not.
package notificationstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Insert persists a notification addressed to one user.
func (s *Store) Insert(ctx context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, n)
	return err
}

// ListByUser returns the user's notifications, newest first, with the total
// count for pagination.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]models.Notification, int64, error) {
	query := bson.M{"user_id": userID}

	total, err := s.c.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []models.Notification
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *Store) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "notification not found")
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead flags all of the user's unread notifications as read and
// returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
