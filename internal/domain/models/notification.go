// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification categories.
const (
	CategoryAlert      = "alert"
	CategoryReminder   = "reminder"
	CategoryUpdate     = "update"
	CategoryAssignment = "assignment"
)

// Notification is a durably persisted message addressed to one user.
// Metadata carries correlating identifiers (request_id, donor_id,
// delivery_id) for client-side deep-linking.
type Notification struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title    string             `bson:"title" json:"title"`
	Message  string             `bson:"message" json:"message"`
	Category string             `bson:"category" json:"category"` // alert | reminder | update | assignment
	Metadata map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IsRead   bool               `bson:"is_read" json:"is_read"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
