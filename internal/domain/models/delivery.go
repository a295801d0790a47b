// internal/domain/models/delivery.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delivery statuses.
const (
	DeliveryScheduled = "scheduled"
	DeliveryPickedUp  = "picked_up"
	DeliveryDelivered = "delivered"
	DeliveryCancelled = "cancelled"
)

// Delivery is the transport record created once a donor has accepted a match
// and an admin assigns a courier. Status reports from the courier drive the
// parent request's in_transit -> completed/cancelled transitions.
type Delivery struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID   primitive.ObjectID `bson:"request_id" json:"request_id"`
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	RecipientID primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	CourierID   primitive.ObjectID `bson:"courier_id" json:"courier_id"`
	Status      string             `bson:"status" json:"status"`
	PickupETA   *time.Time         `bson:"pickup_eta,omitempty" json:"pickup_eta,omitempty"`
	DropoffETA  *time.Time         `bson:"dropoff_eta,omitempty" json:"dropoff_eta,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
