package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered customer or administrator
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password" json:"-"`
	Role              Role               `bson:"role" json:"role"`
	IsVerified        bool               `bson:"isVerified" json:"isVerified"`
	VerificationToken string             `bson:"verificationToken,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// Identity returns the registered identity of u.
func (u *User) Identity() Identity {
	return Registered(u.ID, u.Role)
}
