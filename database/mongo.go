package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds the shared mongo client and the collections the app uses.
// Opened once in main and passed down; handlers never dial on their own.
type Store struct {
	Client        *mongo.Client
	Users         *mongo.Collection
	Donations     *mongo.Collection
	Sponsorships  *mongo.Collection
	Payments      *mongo.Collection
	Tickets       *mongo.Collection
	TicketUpdates *mongo.Collection
	Favorites     *mongo.Collection
	Programs      *mongo.Collection
	SearchResults *mongo.Collection
}

func Connect(uri string, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &Store{
		Client:        client,
		Users:         db.Collection("users"),
		Donations:     db.Collection("donations"),
		Sponsorships:  db.Collection("sponsorships"),
		Payments:      db.Collection("payments"),
		Tickets:       db.Collection("contactTickets"),
		TicketUpdates: db.Collection("ticketUpdates"),
		Favorites:     db.Collection("favorites"),
		Programs:      db.Collection("programs"),
		SearchResults: db.Collection("searchResults"),
	}, nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
