// Package testutil provides database setup and fixture helpers for
// integration-style tests. Tests that need Mongo call SetupTestDB and are
// skipped automatically when no server is reachable.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// envMongoURI overrides the test server location.
const envMongoURI = "BLOODSTREAM_TEST_MONGO_URI"

// SetupTestDB connects to the test MongoDB server and returns a database
// unique to this test, dropped at cleanup. Skips the test when no server is
// reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(envMongoURI)
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo unavailable at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable at %s: %v", uri, err)
	}

	db := client.Database(fmt.Sprintf("bloodstream_test_%s", primitive.NewObjectID().Hex()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// TestContext returns a context with a generous timeout for test DB calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestPassword is the plaintext behind HashedTestPassword.
const TestPassword = "correct-horse-battery"

// HashedTestPassword returns a bcrypt hash of TestPassword at minimum cost,
// so fixture creation stays fast.
func HashedTestPassword(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

// InsertUser writes a user document directly and returns it with its new id.
func InsertUser(t *testing.T, db *mongo.Database, u models.User) models.User {
	t.Helper()
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

// NewDonor builds an eligible donor fixture at the given location.
func NewDonor(name, bloodType string, lng, lat float64) models.User {
	return models.User{
		FullName:   name,
		Email:      fmt.Sprintf("%s-%s@example.com", name, primitive.NewObjectID().Hex()),
		Role:       models.RoleDonor,
		BloodType:  bloodType,
		Location:   models.NewGeoPoint(lng, lat),
		Available:  true,
		IsVerified: true,
		Donor:      &models.DonorProfile{},
	}
}

// NewRecipient builds a recipient fixture at the given location.
func NewRecipient(name string, lng, lat float64) models.User {
	return models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, primitive.NewObjectID().Hex()),
		Role:     models.RoleRecipient,
		Location: models.NewGeoPoint(lng, lat),
	}
}

// NewAdmin builds an admin fixture.
func NewAdmin(name string) models.User {
	return models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, primitive.NewObjectID().Hex()),
		Role:     models.RoleAdmin,
	}
}

// NewCourier builds a courier fixture.
func NewCourier(name string) models.User {
	return models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, primitive.NewObjectID().Hex()),
		Role:     models.RoleCourier,
	}
}
