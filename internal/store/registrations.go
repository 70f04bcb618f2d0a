/* registrations.go
 * Methods for the registrations collection
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"startloft-api/internal/models"
)

const maxParticipants = 1000

// InsertRegistration stores r and returns its id. A second registration with
// the same tournament and phone fails with ErrDuplicate.
func (s *Store) InsertRegistration(ctx context.Context, r *models.Registration) (string, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	_, err := s.Collections.Registrations.InsertOne(ctx, r)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		return "", fmt.Errorf("insert registration: %w", err)
	}
	return r.ID.Hex(), nil
}

// ListPublicParticipants returns the non-cancelled registrations of a
// tournament without contact details.
func (s *Store) ListPublicParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	filter := bson.M{
		"tournament_id": tournamentID,
		"status":        bson.M{"$ne": models.RegistrationCancelled},
	}
	opts := options.Find().
		SetLimit(maxParticipants).
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.D{
			{Key: "_id", Value: 0},
			{Key: "fio", Value: 1},
			{Key: "rank", Value: 1},
			{Key: "category", Value: 1},
			{Key: "city_country", Value: 1},
		})

	cursor, err := s.Collections.Registrations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find participants: %w", err)
	}

	results := []models.Participant{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return results, nil
}

// ListRegistrations returns full registration documents ordered by creation
// time. An empty tournamentID means every tournament; limit 0 means no limit.
func (s *Store) ListRegistrations(ctx context.Context, tournamentID string, limit int64) ([]models.Registration, error) {
	filter := bson.M{}
	if tournamentID != "" {
		filter["tournament_id"] = tournamentID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.Collections.Registrations.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}

	results := []models.Registration{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return results, nil
}

func (s *Store) CountRegistrations(ctx context.Context, tournamentID string) (int64, error) {
	filter := bson.M{}
	if tournamentID != "" {
		filter["tournament_id"] = tournamentID
	}
	n, err := s.Collections.Registrations.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
