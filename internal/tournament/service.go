// Package tournament serves tournament listings and the admin operations on
// them.
package tournament

import (
	"context"
	"errors"
	"log"
	"time"

	"startloft-api/internal/apperr"
	"startloft-api/internal/models"
	"startloft-api/internal/store"
	"startloft-api/internal/util"
)

const (
	MsgNotFound      = "Турнир не найден"
	MsgUnknownStatus = "Недопустимый статус"
	MsgStorage       = "Ошибка базы данных"
)

type Store interface {
	ListTournaments(ctx context.Context, status string) ([]models.Tournament, error)
	FindTournament(ctx context.Context, id string) (*models.Tournament, error)
	InsertTournament(ctx context.Context, t *models.Tournament) (string, error)
	ListPublicParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error)
	ListRegistrations(ctx context.Context, tournamentID string, limit int64) ([]models.Registration, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(s Store) *Service {
	return &Service{store: s, now: util.NowUTC}
}

// List returns tournaments featured-first. An empty status lists all.
func (s *Service) List(ctx context.Context, status string) ([]models.Tournament, error) {
	if status != "" && !models.IsTournamentStatus(status) {
		return nil, apperr.Validation("status", MsgUnknownStatus)
	}
	ts, err := s.store.ListTournaments(ctx, status)
	if err != nil {
		log.Printf("tournament: list: %v", err)
		return nil, apperr.Persistence(MsgStorage, err)
	}
	return ts, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.store.FindTournament(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(MsgNotFound)
		}
		log.Printf("tournament: get %s: %v", id, err)
		return nil, apperr.Persistence(MsgStorage, err)
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, d models.TournamentDraft) (models.TournamentCreated, error) {
	t, err := d.Build(s.now())
	if err != nil {
		return models.TournamentCreated{}, err
	}
	id, err := s.store.InsertTournament(ctx, &t)
	if err != nil {
		log.Printf("tournament: insert %q: %v", t.Title, err)
		return models.TournamentCreated{}, apperr.Persistence(MsgStorage, err)
	}
	log.Printf("tournament: created %s (%s)", id, t.Slug)
	return models.TournamentCreated{ID: id, Slug: t.Slug, Title: t.Title}, nil
}

// Participants lists the public view of a tournament's registrations. An
// unknown tournament yields an empty list.
func (s *Service) Participants(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	ps, err := s.store.ListPublicParticipants(ctx, tournamentID)
	if err != nil {
		log.Printf("tournament: participants %s: %v", tournamentID, err)
		return nil, apperr.Persistence(MsgStorage, err)
	}
	return ps, nil
}
