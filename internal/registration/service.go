// Package registration accepts tournament registrations: validation, storage,
// the spreadsheet copy and the staff notification.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"startloft-api/internal/apperr"
	"startloft-api/internal/models"
	"startloft-api/internal/store"
	"startloft-api/internal/util"
	"startloft-api/internal/validation"
)

const (
	MsgTournamentNotFound = "Турнир не найден"
	MsgRegistrationClosed = "Регистрация на этот турнир закрыта"
	MsgAlreadyRegistered  = "Вы уже зарегистрированы на этот турнир"
	MsgSaveFailed         = "Ошибка сохранения"
	MsgLookupFailed       = "Не удалось загрузить турнир"
	MsgAccepted           = "Заявка успешно принята!"

	DefaultSideEffectTimeout = 15 * time.Second
)

type TournamentFinder interface {
	FindTournament(ctx context.Context, id string) (*models.Tournament, error)
}

type RegistrationInserter interface {
	InsertRegistration(ctx context.Context, r *models.Registration) (string, error)
}

type Mirror interface {
	AppendRegistration(ctx context.Context, r models.Registration, tournamentName string) (bool, error)
}

type Notifier interface {
	NotifyRegistration(ctx context.Context, r models.Registration, tournamentName string) error
}

type Service struct {
	tournaments   TournamentFinder
	registrations RegistrationInserter
	mirror        Mirror
	notifier      Notifier

	now               func() time.Time
	sideEffectTimeout time.Duration
}

// NewService wires the orchestrator. mirror and notifier may be nil.
func NewService(tournaments TournamentFinder, registrations RegistrationInserter, mirror Mirror, notifier Notifier) *Service {
	return &Service{
		tournaments:       tournaments,
		registrations:     registrations,
		mirror:            mirror,
		notifier:          notifier,
		now:               util.NowUTC,
		sideEffectTimeout: DefaultSideEffectTimeout,
	}
}

// Submit runs one registration through validation, tournament checks and
// storage. Once the record is stored the call succeeds whatever happens to
// the spreadsheet copy and the staff notification.
func (s *Service) Submit(ctx context.Context, req models.RegistrationRequest, meta models.RegistrationMeta) (models.RegistrationResponse, error) {
	now := s.now().UTC()

	in, err := validation.Registration(req, now)
	if err != nil {
		return models.RegistrationResponse{}, err
	}

	t, err := s.tournaments.FindTournament(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.RegistrationResponse{}, apperr.NotFound(MsgTournamentNotFound)
		}
		log.Printf("registration: lookup tournament %s: %v", in.TournamentID, err)
		return models.RegistrationResponse{}, apperr.Persistence(MsgLookupFailed, err)
	}
	if !t.RegistrationOpen {
		return models.RegistrationResponse{}, apperr.Precondition(MsgRegistrationClosed)
	}

	reg := models.Registration{
		TournamentID: in.TournamentID,
		Fio:          in.Fio,
		BirthDate:    in.BirthDate.Format(util.DateLayout),
		Phone:        in.Phone,
		Category:     in.Category,
		Rank:         in.Rank,
		CityCountry:  in.CityCountry,
		Comment:      in.Comment,
		Status:       models.RegistrationNew,
		CreatedAt:    now,
		Meta:         meta,
	}
	id, err := s.registrations.InsertRegistration(ctx, &reg)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.RegistrationResponse{}, apperr.Conflict(MsgAlreadyRegistered)
		}
		log.Printf("registration: insert for tournament %s: %v", in.TournamentID, err)
		return models.RegistrationResponse{}, apperr.Persistence(MsgSaveFailed, err)
	}

	if s.mirror != nil {
		s.sideEffect(ctx, "sheets", func(ctx context.Context) error {
			ok, err := s.mirror.AppendRegistration(ctx, reg, t.Title)
			if err == nil && !ok {
				log.Printf("registration: sheets mirror disabled, %s not copied", id)
			}
			return err
		})
	}
	if s.notifier != nil {
		s.sideEffect(ctx, "telegram", func(ctx context.Context) error {
			return s.notifier.NotifyRegistration(ctx, reg, t.Title)
		})
	}

	return models.RegistrationResponse{
		Success:        true,
		Message:        MsgAccepted,
		WhatsappLink:   ContactLink(t.Title, in),
		RegistrationID: id,
	}, nil
}

// sideEffect runs fn with its own deadline, detached from the request's
// cancellation. Errors and panics are logged and dropped.
func (s *Service) sideEffect(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		log.Printf("registration: %s: %v", name, err)
	}
}
