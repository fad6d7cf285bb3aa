// Package exchange owns the exchange lifecycle.
//
// Every transition is a compare-and-swap on the exchange's version: the service
// re-reads the row, validates the command against the state machine, and writes
// only if nobody else wrote in between. A lost race surfaces as ErrContention.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/logging"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service errors
var (
	ErrExchangeNotFound  = errors.New("exchange not found")
	ErrSelfExchange      = errors.New("requester and provider must differ")
	ErrInvalidPairing    = errors.New("both parties must offer the skill they trade")
	ErrForbidden         = errors.New("participant may not perform this action on the exchange")
	ErrIllegalTransition = errors.New("transition not allowed from current status")
	ErrDuplicateRating   = errors.New("rating already submitted")
	ErrInvalidRating     = fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	ErrInvalidStatus     = errors.New("unknown exchange status")
	ErrContention        = errors.New("exchange was modified concurrently, retry")
	ErrTextTooLong       = fmt.Errorf("message, reason and feedback must be at most %d characters", models.MaxExchangeTextLength)
)

// PairingChecker answers whether a participant offers a skill
type PairingChecker interface {
	HasOffer(ctx context.Context, participantID, skillID uuid.UUID) (bool, error)
}

// CompletionObserver is notified after an exchange reaches COMPLETED
type CompletionObserver interface {
	OnCompleted(ctx context.Context, e *models.Exchange)
}

// Service handles exchange lifecycle operations
type Service struct {
	store        store.Exchanges
	participants participant.Directory
	pairing      PairingChecker
	observers    []CompletionObserver
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService creates a new exchange service
func NewService(s store.Exchanges, participants participant.Directory, pairing PairingChecker, observers ...CompletionObserver) *Service {
	return &Service{
		store:        s,
		participants: participants,
		pairing:      pairing,
		observers:    observers,
		logger:       logging.NewLogger("exchange"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateExchangeRequest represents a request to propose an exchange
type CreateExchangeRequest struct {
	ProviderID       uuid.UUID `json:"provider_id" binding:"required"`
	RequestedSkillID uuid.UUID `json:"requested_skill_id" binding:"required"`
	OfferedSkillID   uuid.UUID `json:"offered_skill_id" binding:"required"`
	Message          *string   `json:"message,omitempty"`
}

// Create proposes an exchange from requesterID. The provider must offer the
// requested skill and the requester must offer the skill given in return.
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, req *CreateExchangeRequest) (*models.Exchange, error) {
	message := trimmed(req.Message)
	if message != nil && models.TooLong(*message, models.MaxExchangeTextLength) {
		return nil, ErrTextTooLong
	}
	if requesterID == req.ProviderID {
		return nil, ErrSelfExchange
	}
	for _, id := range []uuid.UUID{requesterID, req.ProviderID} {
		if _, err := s.participants.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	providerOffers, err := s.pairing.HasOffer(ctx, req.ProviderID, req.RequestedSkillID)
	if err != nil {
		return nil, err
	}
	requesterOffers, err := s.pairing.HasOffer(ctx, requesterID, req.OfferedSkillID)
	if err != nil {
		return nil, err
	}
	if !providerOffers || !requesterOffers {
		return nil, ErrInvalidPairing
	}

	now := s.now()
	e := &models.Exchange{
		ID:               uuid.New(),
		RequesterID:      requesterID,
		ProviderID:       req.ProviderID,
		RequestedSkillID: req.RequestedSkillID,
		OfferedSkillID:   req.OfferedSkillID,
		Status:           models.ExchangeStatusPending,
		Message:          message,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateExchange(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create exchange: %w", err)
	}

	monitoring.RecordExchangeCreated()
	s.logger.Info().
		Str("exchange_id", e.ID.String()).
		Str("requester_id", requesterID.String()).
		Str("provider_id", req.ProviderID.String()).
		Msg("Exchange created")

	return e, nil
}

// Accept moves a PENDING exchange to ACCEPTED. Provider only.
func (s *Service) Accept(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
	return s.transition(ctx, exchangeID, actorID, ActionAccept, nil)
}

// Reject moves a PENDING exchange to REJECTED. Provider only.
func (s *Service) Reject(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
	return s.transition(ctx, exchangeID, actorID, ActionReject, nil)
}

// Schedule records when an ACCEPTED exchange takes place and moves it to
// IN_PROGRESS. A zero time schedules it for now.
func (s *Service) Schedule(ctx context.Context, exchangeID, actorID uuid.UUID, when time.Time) (*models.Exchange, error) {
	return s.transition(ctx, exchangeID, actorID, ActionSchedule, func(e *models.Exchange, _ models.Role, now time.Time) {
		at := when.UTC()
		if when.IsZero() {
			at = now
		}
		e.ScheduledAt = &at
	})
}

// Start is Schedule for the current time
func (s *Service) Start(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
	return s.transition(ctx, exchangeID, actorID, ActionStart, func(e *models.Exchange, _ models.Role, now time.Time) {
		e.ScheduledAt = &now
	})
}

// Cancel moves a non-terminal exchange to CANCELLED. A non-empty reason is
// stored as the acting party's feedback.
func (s *Service) Cancel(ctx context.Context, exchangeID, actorID uuid.UUID, reason string) (*models.Exchange, error) {
	r := strings.TrimSpace(reason)
	if models.TooLong(r, models.MaxExchangeTextLength) {
		return nil, ErrTextTooLong
	}
	return s.transition(ctx, exchangeID, actorID, ActionCancel, func(e *models.Exchange, role models.Role, _ time.Time) {
		if r == "" {
			return
		}
		switch role {
		case models.RoleRequester:
			e.RequesterFeedback = &r
		case models.RoleProvider:
			e.ProviderFeedback = &r
		}
	})
}

// SubmitRating records the actor's rating of the other party. When both
// ratings are present the exchange becomes COMPLETED in the same write.
func (s *Service) SubmitRating(ctx context.Context, exchangeID, actorID uuid.UUID, rating int, feedback string) (*models.Exchange, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}
	fb := strings.TrimSpace(feedback)
	if models.TooLong(fb, models.MaxExchangeTextLength) {
		return nil, ErrTextTooLong
	}
	return s.transition(ctx, exchangeID, actorID, ActionRate, func(e *models.Exchange, role models.Role, _ time.Time) {
		r := rating
		switch role {
		case models.RoleRequester:
			e.RequesterRating = &r
			if fb != "" {
				e.RequesterFeedback = &fb
			}
		case models.RoleProvider:
			e.ProviderRating = &r
			if fb != "" {
				e.ProviderFeedback = &fb
			}
		}
	})
}

type mutation func(e *models.Exchange, role models.Role, now time.Time)

func (s *Service) transition(ctx context.Context, exchangeID, actorID uuid.UUID, action Action, mutate mutation) (*models.Exchange, error) {
	current, err := s.load(ctx, exchangeID)
	if err != nil {
		return nil, err
	}

	role := current.RoleOf(actorID)
	if role == models.RoleNone {
		logging.LogSecurityEvent("exchange_non_party", actorID.String(), "", string(action)+" on "+exchangeID.String())
		return nil, ErrForbidden
	}
	// A rating retry stays a duplicate even once the exchange has completed.
	if action == ActionRate && ratingSlot(current, role) != nil {
		return nil, ErrDuplicateRating
	}
	if !legalFrom(action, current.Status) {
		return nil, ErrIllegalTransition
	}
	if !permitted(action, role) {
		return nil, ErrForbidden
	}

	now := s.now()
	next := current.Clone()
	if mutate != nil {
		mutate(next, role, now)
	}
	next.Status = target(action, next)
	if next.Status == models.ExchangeStatusCompleted && next.CompletedAt == nil {
		next.CompletedAt = &now
	}
	next.Version = current.Version + 1
	next.UpdatedAt = now

	if err := s.store.UpdateExchange(ctx, next, current.Version); err != nil {
		switch {
		case errors.Is(err, store.ErrVersionConflict):
			monitoring.RecordExchangeContention(string(action))
			return nil, ErrContention
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrExchangeNotFound
		}
		return nil, fmt.Errorf("failed to update exchange: %w", err)
	}

	if next.Status != current.Status {
		monitoring.RecordExchangeTransition(string(current.Status), string(next.Status))
	}
	if action == ActionRate {
		monitoring.RecordRating(string(role), *ratingSlot(next, role))
	}
	logging.LogTransition(s.logger, &logging.TransitionLogEntry{
		ExchangeID: next.ID.String(),
		ActorID:    actorID.String(),
		Action:     string(action),
		From:       string(current.Status),
		To:         string(next.Status),
		Version:    next.Version,
	})

	if next.Status == models.ExchangeStatusCompleted {
		for _, o := range s.observers {
			o.OnCompleted(ctx, next.Clone())
		}
	}

	return next, nil
}

func (s *Service) load(ctx context.Context, exchangeID uuid.UUID) (*models.Exchange, error) {
	e, err := s.store.GetExchange(ctx, exchangeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrExchangeNotFound
		}
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	return e, nil
}

// Get returns an exchange to one of its parties
func (s *Service) Get(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
	e, err := s.load(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if e.RoleOf(actorID) == models.RoleNone {
		return nil, ErrForbidden
	}
	return e, nil
}

// Lookup returns an exchange without a party check, for collaborators that
// validate references themselves
func (s *Service) Lookup(ctx context.Context, exchangeID uuid.UUID) (*models.Exchange, error) {
	return s.load(ctx, exchangeID)
}

// ByParticipant returns the participant's exchanges newest first, restricted
// to statuses when any are given
func (s *Service) ByParticipant(ctx context.Context, participantID uuid.UUID, statuses ...models.ExchangeStatus) ([]models.Exchange, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	exchanges, err := s.store.ListExchangesByParticipant(ctx, participantID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

// ActiveForParticipant returns the participant's PENDING, ACCEPTED and IN_PROGRESS exchanges
func (s *Service) ActiveForParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Exchange, error) {
	return s.ByParticipant(ctx, participantID, models.ActiveExchangeStatuses...)
}

// CountCompleted returns the number of COMPLETED exchanges the participant took part in
func (s *Service) CountCompleted(ctx context.Context, participantID uuid.UUID) (int64, error) {
	n, err := s.store.CountCompletedExchanges(ctx, participantID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed exchanges: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of exchanges in every status
func (s *Service) CountByStatus(ctx context.Context) (map[models.ExchangeStatus]int64, error) {
	counts, err := s.store.CountExchangesByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count exchanges: %w", err)
	}
	if counts == nil {
		counts = make(map[models.ExchangeStatus]int64, len(models.AllExchangeStatuses))
	}
	for _, st := range models.AllExchangeStatuses {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
