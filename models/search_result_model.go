package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchResult is one saved recommendation run. The matching engine
// writes these; this service only lists and replays them.
type SearchResult struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"-"`
	Preferences     bson.M             `bson:"preferences,omitempty" json:"preferences,omitempty"`
	Recommendations []bson.M           `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
