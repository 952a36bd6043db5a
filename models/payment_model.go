package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	StatusInitiated      PaymentStatus = "initiated"
	StatusRequiresAction PaymentStatus = "requires_action"
	StatusProcessing     PaymentStatus = "processing"
	StatusSucceeded      PaymentStatus = "succeeded"
	StatusFailed         PaymentStatus = "failed"
)

// Terminal reports whether no further transition is expected. Processor
// statuses we don't recognize are stored verbatim and are never terminal.
func (s PaymentStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

type PaymentSource string

const (
	SourceDonation    PaymentSource = "donation"
	SourceSponsorship PaymentSource = "sponsorship"
)

// Payment is the processor-facing mirror of one donation or sponsorship.
// Its status is the source of truth; the owning record only caches it.
type Payment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	Source          PaymentSource      `bson:"source" json:"source"`
	SourceID        primitive.ObjectID `bson:"sourceId" json:"sourceId"`
	AmountCents     int64              `bson:"amountCents" json:"amountCents"`
	Currency        string             `bson:"currency" json:"currency"`
	Status          PaymentStatus      `bson:"status" json:"status"`
	PaymentIntentID string             `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	ClientSecret    string             `bson:"clientSecret,omitempty" json:"clientSecret,omitempty"`
	ChargeID        string             `bson:"chargeId,omitempty" json:"chargeId,omitempty"`
	Brand           string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Last4           string             `bson:"last4,omitempty" json:"last4,omitempty"`
	FailureCode     string             `bson:"failureCode,omitempty" json:"failureCode,omitempty"`
	FailureMessage  string             `bson:"failureMessage,omitempty" json:"failureMessage,omitempty"`
}
