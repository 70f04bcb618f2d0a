/* store.go
 * Store struct and constructor. Methods are split by collection:
 * tournaments.go and registrations.go
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TournamentsCollection   = "tournaments"
	RegistrationsCollection = "registrations"

	// RegistrationUniqueIndex keeps one registration per phone per tournament.
	RegistrationUniqueIndex = "tournament_phone_unique"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate registration")
)

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Tournaments   *mongo.Collection
		Registrations *mongo.Collection
	}
}

// New connects to MongoDB, checks the connection and makes sure the indexes
// registrations rely on exist.
func New(ctx context.Context, mongoURI, dbName string) (*Store, error) {
	if mongoURI == "" || dbName == "" {
		return nil, fmt.Errorf("mongo uri and database name are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := FromDatabase(client, client.Database(dbName))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// FromDatabase wires a Store over an already connected database.
func FromDatabase(client *mongo.Client, db *mongo.Database) *Store {
	s := &Store{Client: client, Database: db}
	s.Collections.Tournaments = db.Collection(TournamentsCollection)
	s.Collections.Registrations = db.Collection(RegistrationsCollection)
	return s
}

// EnsureIndexes creates the unique (tournament_id, phone) index. Running it
// again against an existing identical index is a no-op on the server.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "tournament_id", Value: 1},
			{Key: "phone", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName(RegistrationUniqueIndex),
	}
	if _, err := s.Collections.Registrations.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create registrations index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
