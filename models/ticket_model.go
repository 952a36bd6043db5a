package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TicketType string

const (
	TicketRefund       TicketType = "refund"
	TicketWrongInfo    TicketType = "wrong-info"
	TicketReportBug    TicketType = "report-bug"
	TicketPersonalInfo TicketType = "personal-info"
	TicketPartnership  TicketType = "partnership"
	TicketOther        TicketType = "other"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in-progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketUpdateKind string

const (
	TicketUpdateNote   TicketUpdateKind = "note"
	TicketUpdateStatus TicketUpdateKind = "status"
)

// TicketUpdate is one entry in a ticket's thread: either an admin note
// or a recorded status change.
type TicketUpdate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TicketID    primitive.ObjectID `bson:"ticketId" json:"ticketId"`
	Kind        TicketUpdateKind   `bson:"kind" json:"kind"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	FromStatus  TicketStatus       `bson:"fromStatus,omitempty" json:"fromStatus,omitempty"`
	ToStatus    TicketStatus       `bson:"toStatus,omitempty" json:"toStatus,omitempty"`
	AuthorName  string             `bson:"authorName,omitempty" json:"authorName,omitempty"`
	AuthorEmail string             `bson:"authorEmail,omitempty" json:"authorEmail,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type Ticket struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference string             `bson:"reference" json:"reference"`
	Type      TicketType         `bson:"type" json:"type"`
	Status    TicketStatus       `bson:"status" json:"status"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Summary   string             `bson:"summary" json:"summary"`
	Details   string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
