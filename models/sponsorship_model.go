package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sponsorships cost a fixed $200 CAD and stay active for 120 days.
const (
	SponsorshipAmountCents int64 = 20000
	SponsorshipWindow            = 120 * 24 * time.Hour
)

type Sponsorship struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UniName        string              `bson:"uniName" json:"uniName"`
	ProgramName    string              `bson:"programName" json:"programName"`
	DepartmentName string              `bson:"departmentName" json:"departmentName"`
	Email          string              `bson:"email" json:"email"`
	Phone          string              `bson:"phone" json:"phone"`
	Message        string              `bson:"message" json:"message"`
	AmountCents    int64               `bson:"amountCents" json:"amountCents"`
	Currency       string              `bson:"currency" json:"currency"`
	Status         PaymentStatus       `bson:"status" json:"status"`
	StartsAt       time.Time           `bson:"startsAt" json:"startsAt"`
	ExpiresAt      time.Time           `bson:"expiresAt" json:"expiresAt"`
	PaymentID      *primitive.ObjectID `bson:"paymentId" json:"paymentId"`
}
