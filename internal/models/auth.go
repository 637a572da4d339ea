package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor roles. RoleAdmin is the elevated role required for approve/reject
// and force-activation.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// Actor is the authenticated admin performing a campaign operation.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Elevated reports whether the actor may perform privileged transitions.
func (a Actor) Elevated() bool {
	return a.Role == RoleAdmin
}

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminUser represents an account for the admin backend. Stored in the
// "admin_users" collection; the password field holds a bcrypt hash.
type AdminUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"` // "admin" or "manager"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
