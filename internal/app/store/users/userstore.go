// Package userstore reads and writes the users collection. The matching
// engine treats this as the identity store: it reads donor eligibility
// fields and location, and its only write-back is the donation counter
// updated when a delivery completes.
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing the email. Returns a conflict
// error when the email is already registered.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalizeEmail(u.Email)

	switch u.Role {
	case models.RoleDonor, models.RoleRecipient, models.RoleCourier, models.RoleAdmin:
	default:
		return models.User{}, apperr.Newf(apperr.Validation, "invalid role %q", u.Role)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, apperr.New(apperr.Conflict, "a user with this email already exists")
		}
		return models.User{}, err
	}
	return u, nil
}

// FindCandidateDonors returns eligible donors within radiusKm of point:
// role donor, verified, available, blood type present. Results come back in
// $near order (closest first) and are capped at limit; ranking happens
// downstream.
func (s *Store) FindCandidateDonors(ctx context.Context, point models.GeoPoint, radiusKm float64, limit int64) ([]models.User, error) {
	filter := bson.M{
		"role":        models.RoleDonor,
		"is_verified": true,
		"available":   true,
		"blood_type":  bson.M{"$exists": true, "$ne": ""},
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    point,
				"$maxDistance": radiusKm * 1000,
			},
		},
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var donors []models.User
	if err := cur.All(ctx, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

// ListAdminIDs returns the ids of all admin accounts, for fanout of
// match-confirmation notices.
func (s *Store) ListAdminIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	proj := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleAdmin}, proj)
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

// IncrementDonationCount bumps the donor's donation total and stamps the
// last donation date. Called when a delivery completes.
func (s *Store) IncrementDonationCount(ctx context.Context, donorID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": donorID, "role": models.RoleDonor},
		bson.M{
			"$inc": bson.M{"donor_profile.total_donations": 1},
			"$set": bson.M{
				"donor_profile.last_donation_date": now,
				"updated_at":                       now,
			},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "donor not found")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
