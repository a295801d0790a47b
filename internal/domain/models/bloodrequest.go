// internal/domain/models/bloodrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BloodRequest statuses. Transitions are monotonic:
// pending -> matched -> in_transit -> completed|cancelled, with cancellation
// also allowed from pending and matched. Completed and cancelled are terminal.
const (
	RequestPending   = "pending"
	RequestMatched   = "matched"
	RequestInTransit = "in_transit"
	RequestCompleted = "completed"
	RequestCancelled = "cancelled"
)

// Urgency levels, lowest to highest.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Match statuses.
const (
	MatchNotified = "notified"
	MatchAccepted = "accepted"
	MatchDeclined = "declined"
)

// Match is the scored association between one candidate donor and one
// request, embedded in the request document. A donor appears at most once
// per request, and at most one match per request ever reaches accepted.
type Match struct {
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	Score       float64            `bson:"score" json:"score"`
	DistanceKm  *float64           `bson:"distance_km,omitempty" json:"distance_km,omitempty"`
	Status      string             `bson:"status" json:"status"` // notified | accepted | declined
	RespondedAt *time.Time         `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// Hospital is the destination for a request. Location is optional; when it is
// absent the recipient's home location is used as the search target.
type Hospital struct {
	Name     string    `bson:"name,omitempty" json:"name,omitempty"`
	Address  string    `bson:"address,omitempty" json:"address,omitempty"`
	Location *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
}

// BloodRequest is the unit of consistency for the matching engine: the
// embedded match list is only ever mutated through single-document writes on
// this record.
type BloodRequest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID  `bson:"recipient_id" json:"recipient_id"`
	BloodType   string              `bson:"blood_type" json:"blood_type"`
	UnitsNeeded int                 `bson:"units_needed" json:"units_needed"`
	Urgency     string              `bson:"urgency" json:"urgency"`
	Hospital    *Hospital           `bson:"hospital,omitempty" json:"hospital,omitempty"`
	Status      string              `bson:"status" json:"status"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Matches     []Match             `bson:"matches" json:"matches"`
	DeliveryID  *primitive.ObjectID `bson:"delivery_id,omitempty" json:"delivery_id,omitempty"`

	EmergencyEscalatedAt *time.Time `bson:"emergency_escalated_at,omitempty" json:"emergency_escalated_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MatchFor returns the match entry for the given donor, or nil.
func (r *BloodRequest) MatchFor(donorID primitive.ObjectID) *Match {
	for i := range r.Matches {
		if r.Matches[i].DonorID == donorID {
			return &r.Matches[i]
		}
	}
	return nil
}

// AcceptedMatch returns the accepted match entry, or nil.
func (r *BloodRequest) AcceptedMatch() *Match {
	for i := range r.Matches {
		if r.Matches[i].Status == MatchAccepted {
			return &r.Matches[i]
		}
	}
	return nil
}

// Terminal reports whether the request has reached a terminal status.
func (r *BloodRequest) Terminal() bool {
	return r.Status == RequestCompleted || r.Status == RequestCancelled
}
