package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramSnapshot is the slice of a program a favorite keeps, so the
// favorites list renders even if the program catalog changes later.
type ProgramSnapshot struct {
	ProgramID      string `bson:"programId" json:"programId"`
	ProgramName    string `bson:"programName" json:"programName"`
	UniversityName string `bson:"universityName" json:"universityName"`
	FacultyName    string `bson:"facultyName,omitempty" json:"facultyName,omitempty"`
	Location       string `bson:"location,omitempty" json:"location,omitempty"`
}

type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"-"`
	ProgramID string             `bson:"programId" json:"programId"`
	Snapshot  ProgramSnapshot    `bson:"snapshot" json:"snapshot"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Program is a catalog entry. The catalog is written by an external
// import job; this service only reads it when snapshotting favorites.
type Program struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID      string             `bson:"programId" json:"programId"`
	ProgramName    string             `bson:"programName" json:"programName"`
	UniversityName string             `bson:"universityName" json:"universityName"`
	FacultyName    string             `bson:"facultyName,omitempty" json:"facultyName,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
}

// MaxFavorites caps how many programs one account can pin.
const MaxFavorites = 10
