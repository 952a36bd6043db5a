package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`

	// Password recovery. The code itself is never stored, only its hash.
	ResetCodeHash string    `bson:"passwordResetCodeHash,omitempty" json:"-"`
	ResetExpires  time.Time `bson:"passwordResetExpires,omitempty" json:"-"`
}
