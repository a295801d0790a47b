// Package deliverystore owns the deliveries collection: the transport
// records created after a donor accepts and an admin assigns a courier.
package deliverystore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("deliveries")}
}

// Insert persists a new delivery in scheduled status.
func (s *Store) Insert(ctx context.Context, d *models.Delivery) error {
	d.ID = primitive.NewObjectID()
	d.Status = models.DeliveryScheduled
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, d)
	return err
}

// GetByID loads a delivery.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	var d models.Delivery
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "delivery not found")
		}
		return nil, err
	}
	return &d, nil
}

// ListFilter scopes List to a caller's visibility.
type ListFilter struct {
	CourierID   *primitive.ObjectID
	DonorID     *primitive.ObjectID
	RecipientID *primitive.ObjectID
	Status      string
}

// List returns deliveries matching the filter, newest first, with the total
// count for pagination.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Delivery, int64, error) {
	query := bson.M{}
	if f.CourierID != nil {
		query["courier_id"] = *f.CourierID
	}
	if f.DonorID != nil {
		query["donor_id"] = *f.DonorID
	}
	if f.RecipientID != nil {
		query["recipient_id"] = *f.RecipientID
	}
	if f.Status != "" {
		query["status"] = f.Status
	}

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

	var items []models.Delivery
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IDsForCourier returns the ids of all deliveries assigned to a courier,
// used to scope the courier's view of requests.
func (s *Store) IDsForCourier(ctx context.Context, courierID primitive.ObjectID) ([]primitive.ObjectID, error) {
	proj := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"courier_id": courierID}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// UpdateStatus moves a non-terminal delivery to the given status and updates
// the optional ETAs.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, pickupETA, dropoffETA *time.Time) (*models.Delivery, error) {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if pickupETA != nil {
		set["pickup_eta"] = *pickupETA
	}
	if dropoffETA != nil {
		set["dropoff_eta"] = *dropoffETA
	}

	var d models.Delivery
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$nin": bson.A{models.DeliveryDelivered, models.DeliveryCancelled}},
		},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, s.explainMatchlessWrite(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) explainMatchlessWrite(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.New(apperr.Conflict, "delivery is already closed")
}
