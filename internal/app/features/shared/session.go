// Package shared holds small helpers used across feature handlers.
package shared

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/policy/requestpolicy"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
)

// ActorFrom resolves the authenticated caller into a policy actor. Fails
// unauthorized when the auth middleware did not run.
func ActorFrom(r *http.Request) (requestpolicy.Actor, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return requestpolicy.Actor{}, apperr.New(apperr.Unauthorized, "not signed in")
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return requestpolicy.Actor{}, apperr.New(apperr.Unauthorized, "invalid session")
	}
	return requestpolicy.Actor{ID: id, Role: u.Role}, nil
}

// PathID parses the {id} URL parameter as an ObjectID.
func PathID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.New(apperr.Validation, "invalid id")
	}
	return id, nil
}
