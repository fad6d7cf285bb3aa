// Package store defines the persistence contracts the skill exchange services depend on.
//
// Implementations must provide per-row compare-and-swap for exchanges: UpdateExchange
// succeeds only when the stored version equals the expected version.
package store

import (
	"context"
	"errors"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/google/uuid"
)

// Store errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
	ErrValueTooLong    = errors.New("value exceeds column length")
	ErrMissingRef      = errors.New("referenced record not found")
)

// Participants is the participant directory collaborator
type Participants interface {
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// Skills persists the skill catalog
type Skills interface {
	CreateSkill(ctx context.Context, s *models.Skill) error
	GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error)
	// GetSkillByName matches case-insensitively
	GetSkillByName(ctx context.Context, name string) (*models.Skill, error)
	UpdateSkill(ctx context.Context, s *models.Skill) error
	// ListActiveSkills orders by category then name
	ListActiveSkills(ctx context.Context) ([]models.Skill, error)
	// SearchActiveSkills matches query case-insensitively against name or description
	SearchActiveSkills(ctx context.Context, query string) ([]models.Skill, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// Offerings persists participant skill offerings
type Offerings interface {
	CreateOffering(ctx context.Context, o *models.SkillOffering) error
	GetOffering(ctx context.Context, id uuid.UUID) (*models.SkillOffering, error)
	FindOffering(ctx context.Context, participantID, skillID uuid.UUID, polarity models.Polarity) (*models.SkillOffering, error)
	UpdateOffering(ctx context.Context, o *models.SkillOffering) error
	DeleteOffering(ctx context.Context, id uuid.UUID) error
	// ListOfferingsByParticipant returns all offerings when polarity is nil
	ListOfferingsByParticipant(ctx context.Context, participantID uuid.UUID, polarity *models.Polarity) ([]models.SkillOffering, error)
	ListAvailableOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) ([]models.SkillOffering, error)
	ListOfferingsByCategory(ctx context.Context, category string, polarity models.Polarity) ([]models.SkillOffering, error)
	SearchOfferings(ctx context.Context, query string, polarity models.Polarity) ([]models.SkillOffering, error)
	CountOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) (int64, error)
	// TopSkills ranks active skills by offering count for the polarity
	TopSkills(ctx context.Context, polarity models.Polarity, limit int) ([]models.SkillPopularity, error)
}

// RatingTotals is the raw aggregate behind a reputation average
type RatingTotals struct {
	Sum   int64
	Count int64
}

// Exchanges persists exchanges
type Exchanges interface {
	CreateExchange(ctx context.Context, e *models.Exchange) error
	GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error)
	// UpdateExchange writes e if the stored version equals expectedVersion,
	// otherwise returns ErrVersionConflict
	UpdateExchange(ctx context.Context, e *models.Exchange, expectedVersion int) error
	// ListExchangesByParticipant returns exchanges where the participant is either party,
	// newest first, restricted to statuses when non-empty
	ListExchangesByParticipant(ctx context.Context, participantID uuid.UUID, statuses []models.ExchangeStatus) ([]models.Exchange, error)
	CountCompletedExchanges(ctx context.Context, participantID uuid.UUID) (int64, error)
	// CompletedRatingTotals sums the ratings received by participantID in the given role
	// over COMPLETED exchanges
	CompletedRatingTotals(ctx context.Context, participantID uuid.UUID, role models.Role) (RatingTotals, error)
	CountExchangesByStatus(ctx context.Context) (map[models.ExchangeStatus]int64, error)
}

// Messages persists messages
type Messages interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	SetMessageExchange(ctx context.Context, messageID, exchangeID uuid.UUID) error
	// ListThread returns messages linked to the exchange, oldest first
	ListThread(ctx context.Context, exchangeID uuid.UUID) ([]models.Message, error)
	// ListConversation returns messages between the two participants, oldest first
	ListConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
	ListPartners(ctx context.Context, participantID uuid.UUID) ([]models.ConversationPartner, error)
}

// Store bundles every repository
type Store interface {
	Participants
	Skills
	Offerings
	Exchanges
	Messages
	Ping(ctx context.Context) error
	Close()
}
