/* tournaments.go
 * Methods for the tournaments collection
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"startloft-api/internal/models"
)

const maxTournaments = 100

// ListTournaments returns up to 100 tournaments, optionally filtered by
// status, featured ones first and then by start date.
func (s *Store) ListTournaments(ctx context.Context, status string) ([]models.Tournament, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.Collections.Tournaments.Find(ctx, filter, options.Find().SetLimit(maxTournaments))
	if err != nil {
		return nil, fmt.Errorf("find tournaments: %w", err)
	}

	results := []models.Tournament{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode tournaments: %w", err)
	}
	models.SortTournaments(results)
	return results, nil
}

// FindTournament looks a tournament up by its hex id. A malformed id is
// reported as ErrNotFound, same as a missing document.
func (s *Store) FindTournament(ctx context.Context, id string) (*models.Tournament, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var t models.Tournament
	err = s.Collections.Tournaments.FindOne(ctx, bson.M{"_id": oid}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find tournament %s: %w", id, err)
	}
	return &t, nil
}

// InsertTournament stores t and returns the id assigned to it.
func (s *Store) InsertTournament(ctx context.Context, t *models.Tournament) (string, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := s.Collections.Tournaments.InsertOne(ctx, t); err != nil {
		return "", fmt.Errorf("insert tournament: %w", err)
	}
	return t.ID.Hex(), nil
}
