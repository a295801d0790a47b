// Package requeststore owns the blood_requests collection. The request
// document, matches included, is the unit of consistency: every match
// mutation is a single conditional UpdateOne, so concurrent writers either
// win the whole write or match zero documents. There is no find-then-save
// anywhere in this package.
package requeststore

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
	return &Store{c: db.Collection("blood_requests")}
}

// Insert persists a new request in pending status.
func (s *Store) Insert(ctx context.Context, req *models.BloodRequest) error {
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestPending
	if req.Matches == nil {
		req.Matches = []models.Match{}
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, req)
	return err
}

// GetByID loads a request.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error) {
	var req models.BloodRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "request not found")
		}
		return nil, err
	}
	return &req, nil
}

// ListFilter scopes List to a caller's visibility.
type ListFilter struct {
	RecipientID *primitive.ObjectID  // requests owned by this recipient
	DonorID     *primitive.ObjectID  // requests whose match list contains this donor
	DeliveryIDs []primitive.ObjectID // requests attached to these deliveries (courier scope)
	Status      string
	Urgency     string
}

// List returns requests matching the filter, newest first, with the total
// count for pagination.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.BloodRequest, int64, error) {
	query := bson.M{}
	if f.RecipientID != nil {
		query["recipient_id"] = *f.RecipientID
	}
	if f.DonorID != nil {
		query["matches"] = bson.M{"$elemMatch": bson.M{"donor_id": *f.DonorID}}
	}
	if f.DeliveryIDs != nil {
		query["delivery_id"] = bson.M{"$in": f.DeliveryIDs}
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Urgency != "" {
		query["urgency"] = f.Urgency
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

	var items []models.BloodRequest
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ReplaceMatches swaps in a freshly ranked match list. The write is a single
// $set conditioned on the request still being pending, so two concurrent
// ranking runs cannot interleave: the last writer wins entirely.
func (s *Store) ReplaceMatches(ctx context.Context, id primitive.ObjectID, matches []models.Match) error {
	if matches == nil {
		matches = []models.Match{}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{
			"matches":    matches,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.explainMatchlessWrite(ctx, id, "request is no longer pending")
	}
	return nil
}

// Accept resolves the donor's match to accepted and moves the request to
// matched, in one conditional write. The filter requires the request to
// still be pending and the donor's own match to still be notified; of two
// racing accepts, the loser matches zero documents and gets a conflict.
func (s *Store) Accept(ctx context.Context, id, donorID primitive.ObjectID) (*models.BloodRequest, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": models.RequestPending,
			"matches": bson.M{"$elemMatch": bson.M{
				"donor_id": donorID,
				"status":   models.MatchNotified,
			}},
		},
		bson.M{"$set": bson.M{
			"matches.$.status":       models.MatchAccepted,
			"matches.$.responded_at": now,
			"status":                 models.RequestMatched,
			"updated_at":             now,
		}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, s.explainFailedResponse(ctx, id, donorID)
	}
	return s.GetByID(ctx, id)
}

// Decline resolves the donor's match to declined. The request's own status
// is untouched; a declined match never demotes a matched request. Declines
// are rejected once the request is terminal.
func (s *Store) Decline(ctx context.Context, id, donorID primitive.ObjectID) (*models.BloodRequest, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$nin": bson.A{models.RequestCompleted, models.RequestCancelled}},
			"matches": bson.M{"$elemMatch": bson.M{
				"donor_id": donorID,
				"status":   models.MatchNotified,
			}},
		},
		bson.M{"$set": bson.M{
			"matches.$.status":       models.MatchDeclined,
			"matches.$.responded_at": now,
			"updated_at":             now,
		}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, s.explainFailedResponse(ctx, id, donorID)
	}
	return s.GetByID(ctx, id)
}

// Escalate forces urgency to critical and stamps the escalation time.
// Idempotent: escalating an already-critical request refreshes the stamp.
// Terminal requests cannot be escalated.
func (s *Store) Escalate(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.BloodRequest, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$nin": bson.A{models.RequestCompleted, models.RequestCancelled}},
		},
		bson.M{"$set": bson.M{
			"urgency":                models.UrgencyCritical,
			"emergency_escalated_at": at,
			"updated_at":             at,
		}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, s.explainMatchlessWrite(ctx, id, "request is closed")
	}
	return s.GetByID(ctx, id)
}

// AttachDelivery links a delivery record and moves the request to
// in_transit. Valid only from matched.
func (s *Store) AttachDelivery(ctx context.Context, id, deliveryID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestMatched},
		bson.M{"$set": bson.M{
			"delivery_id": deliveryID,
			"status":      models.RequestInTransit,
			"updated_at":  time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.explainMatchlessWrite(ctx, id, "request has no accepted donor awaiting transport")
	}
	return nil
}

// Complete marks an in-transit request completed.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestInTransit},
		bson.M{"$set": bson.M{
			"status":     models.RequestCompleted,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.explainMatchlessWrite(ctx, id, "request is not in transit")
	}
	return nil
}

// Cancel moves a non-terminal request to cancelled.
func (s *Store) Cancel(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$nin": bson.A{models.RequestCompleted, models.RequestCancelled}},
		},
		bson.M{"$set": bson.M{
			"status":     models.RequestCancelled,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.explainMatchlessWrite(ctx, id, "request is already closed")
	}
	return nil
}

// explainFailedResponse turns a zero-match accept/decline into the precise
// failure: the request may be gone, the donor may have no match, the donor
// may have already responded, or another donor may have won the race.
func (s *Store) explainFailedResponse(ctx context.Context, id, donorID primitive.ObjectID) error {
	req, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m := req.MatchFor(donorID)
	if m == nil {
		return apperr.New(apperr.NotFound, "no match found for this donor")
	}
	if m.Status != models.MatchNotified {
		return apperr.New(apperr.Conflict, "match already responded to")
	}
	if req.Terminal() {
		return apperr.New(apperr.Conflict, "request is closed")
	}
	return apperr.New(apperr.Conflict, "request already has an accepted donor")
}

// explainMatchlessWrite distinguishes a missing request from a request in
// the wrong state.
func (s *Store) explainMatchlessWrite(ctx context.Context, id primitive.ObjectID, stateMsg string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.New(apperr.Conflict, stateMsg)
}
