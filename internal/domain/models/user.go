// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleCourier   = "courier"
	RoleAdmin     = "admin"
)

// DonorProfile holds donation history maintained by the delivery flow.
type DonorProfile struct {
	TotalDonations   int        `bson:"total_donations" json:"total_donations"`
	LastDonationDate *time.Time `bson:"last_donation_date,omitempty" json:"last_donation_date,omitempty"`
}

// User represents donors, recipients, couriers, and admins.
//
// Donors are eligible for matching only when IsVerified and Available are
// true and BloodType is set. The matching engine reads these fields and never
// writes them; DonorProfile is the one exception, updated when a delivery
// completes.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"` // donor | recipient | courier | admin

	BloodType  string        `bson:"blood_type,omitempty" json:"blood_type,omitempty"`
	Location   *GeoPoint     `bson:"location,omitempty" json:"location,omitempty"`
	Available  bool          `bson:"available" json:"available"`
	IsVerified bool          `bson:"is_verified" json:"is_verified"`
	Donor      *DonorProfile `bson:"donor_profile,omitempty" json:"donor_profile,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
