package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Donation struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	Name        string              `bson:"name" json:"name"`
	Phone       string              `bson:"phone" json:"phone"`
	Email       string              `bson:"email" json:"email"`
	Reason      string              `bson:"reason" json:"reason"`
	Suggestions string              `bson:"suggestions" json:"suggestions"`
	AmountCents int64               `bson:"amountCents" json:"amountCents"`
	Currency    string              `bson:"currency" json:"currency"`
	Status      PaymentStatus       `bson:"status" json:"status"`
	PaymentID   *primitive.ObjectID `bson:"paymentId" json:"paymentId"` // nil until the payment record exists
}
