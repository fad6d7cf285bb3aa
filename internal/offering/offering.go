// Package offering indexes which participants offer or request which skills.
package offering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/catalog"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service errors
var (
	ErrOfferingNotFound   = errors.New("skill offering not found")
	ErrOfferingExists     = errors.New("participant already registered this skill with this polarity")
	ErrSkillUnavailable   = errors.New("skill not found or inactive")
	ErrInvalidProficiency = fmt.Errorf("proficiency must be between %d and %d", models.MinProficiency, models.MaxProficiency)
	ErrInvalidPolarity    = errors.New("polarity must be OFFER or REQUEST")
	ErrNotOwner           = errors.New("skill offering not owned by participant")
	ErrNoteTooLong        = fmt.Errorf("note must be at most %d characters", models.MaxNoteLength)
)

// DefaultPopularLimit is used when PopularSkills is called without a positive limit
const DefaultPopularLimit = 10

// SkillLookup resolves skills by id regardless of their active flag
type SkillLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Skill, error)
}

// Service handles skill offering operations
type Service struct {
	store        store.Offerings
	skills       SkillLookup
	participants participant.Directory
}

// NewService creates a new offering service
func NewService(s store.Offerings, skills SkillLookup, participants participant.Directory) *Service {
	return &Service{
		store:        s,
		skills:       skills,
		participants: participants,
	}
}

// RegisterOfferingRequest represents a request to register a skill offering
type RegisterOfferingRequest struct {
	SkillID     uuid.UUID       `json:"skill_id" binding:"required"`
	Polarity    models.Polarity `json:"polarity" binding:"required"`
	Proficiency int             `json:"proficiency" binding:"required"`
	Available   *bool           `json:"available,omitempty"`
	Note        *string         `json:"note,omitempty"`
}

// UpdateOfferingRequest represents an owner edit; nil fields are left unchanged
type UpdateOfferingRequest struct {
	Proficiency *int    `json:"proficiency,omitempty"`
	Note        *string `json:"note,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// Register records that participantID offers or requests a skill.
// Availability defaults to true.
func (s *Service) Register(ctx context.Context, participantID uuid.UUID, req *RegisterOfferingRequest) (*models.SkillOffering, error) {
	if !req.Polarity.Valid() {
		return nil, ErrInvalidPolarity
	}
	if err := validateProficiency(req.Proficiency); err != nil {
		return nil, err
	}
	if err := validateNote(req.Note); err != nil {
		return nil, err
	}

	if _, err := s.participants.Get(ctx, participantID); err != nil {
		return nil, err
	}
	skill, err := s.skills.Get(ctx, req.SkillID)
	if err != nil {
		if errors.Is(err, catalog.ErrSkillNotFound) {
			return nil, ErrSkillUnavailable
		}
		return nil, fmt.Errorf("failed to resolve skill: %w", err)
	}
	if !skill.Active {
		return nil, ErrSkillUnavailable
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	now := time.Now().UTC()
	o := &models.SkillOffering{
		ID:            uuid.New(),
		ParticipantID: participantID,
		SkillID:       skill.ID,
		Polarity:      req.Polarity,
		Proficiency:   req.Proficiency,
		Available:     available,
		Note:          normalizeNote(req.Note),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateOffering(ctx, o); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrOfferingExists
		}
		return nil, fmt.Errorf("failed to create offering: %w", err)
	}

	monitoring.RecordOfferingRegistered(string(o.Polarity))
	log.Info().
		Str("offering_id", o.ID.String()).
		Str("participant_id", participantID.String()).
		Str("skill_id", skill.ID.String()).
		Str("polarity", string(o.Polarity)).
		Msg("Skill offering registered")

	return o, nil
}

// Get returns an offering by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.SkillOffering, error) {
	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return o, nil
}

// Update edits proficiency, note or availability. Only the owner may update.
// Existing exchanges are unaffected.
func (s *Service) Update(ctx context.Context, offeringID, actorID uuid.UUID, req *UpdateOfferingRequest) (*models.SkillOffering, error) {
	o, err := s.owned(ctx, offeringID, actorID)
	if err != nil {
		return nil, err
	}

	if req.Proficiency != nil {
		if err := validateProficiency(*req.Proficiency); err != nil {
			return nil, err
		}
		o.Proficiency = *req.Proficiency
	}
	if req.Note != nil {
		if err := validateNote(req.Note); err != nil {
			return nil, err
		}
		o.Note = normalizeNote(req.Note)
	}
	if req.Available != nil {
		o.Available = *req.Available
	}
	o.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateOffering(ctx, o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("failed to update offering: %w", err)
	}
	return o, nil
}

// Remove deletes an offering. Only the owner may remove. Existing exchanges
// keep their own skill and participant references.
func (s *Service) Remove(ctx context.Context, offeringID, actorID uuid.UUID) error {
	if _, err := s.owned(ctx, offeringID, actorID); err != nil {
		return err
	}
	if err := s.store.DeleteOffering(ctx, offeringID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOfferingNotFound
		}
		return fmt.Errorf("failed to delete offering: %w", err)
	}
	log.Info().Str("offering_id", offeringID.String()).Msg("Skill offering removed")
	return nil
}

func (s *Service) owned(ctx context.Context, offeringID, actorID uuid.UUID) (*models.SkillOffering, error) {
	o, err := s.Get(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if o.ParticipantID != actorID {
		return nil, ErrNotOwner
	}
	return o, nil
}

// FindByParticipant returns a participant's offerings, optionally restricted to one polarity
func (s *Service) FindByParticipant(ctx context.Context, participantID uuid.UUID, polarity *models.Polarity) ([]models.SkillOffering, error) {
	if polarity != nil && !polarity.Valid() {
		return nil, ErrInvalidPolarity
	}
	offerings, err := s.store.ListOfferingsByParticipant(ctx, participantID, polarity)
	if err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}
	return offerings, nil
}

// FindAvailable returns available offerings of the given polarity for a skill.
// With OFFER this lists who can teach the skill; with REQUEST, who wants to learn it.
func (s *Service) FindAvailable(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) ([]models.SkillOffering, error) {
	if !polarity.Valid() {
		return nil, ErrInvalidPolarity
	}
	offerings, err := s.store.ListAvailableOfferings(ctx, skillID, polarity)
	if err != nil {
		return nil, fmt.Errorf("failed to list available offerings: %w", err)
	}
	return offerings, nil
}

// FindByCategoryAndPolarity returns offerings whose active skill is in category
func (s *Service) FindByCategoryAndPolarity(ctx context.Context, category string, polarity models.Polarity) ([]models.SkillOffering, error) {
	if !polarity.Valid() {
		return nil, ErrInvalidPolarity
	}
	offerings, err := s.store.ListOfferingsByCategory(ctx, category, polarity)
	if err != nil {
		return nil, fmt.Errorf("failed to list offerings by category: %w", err)
	}
	return offerings, nil
}

// SearchByTextAndPolarity matches text case-insensitively against the name or
// description of active skills
func (s *Service) SearchByTextAndPolarity(ctx context.Context, text string, polarity models.Polarity) ([]models.SkillOffering, error) {
	if !polarity.Valid() {
		return nil, ErrInvalidPolarity
	}
	offerings, err := s.store.SearchOfferings(ctx, strings.TrimSpace(text), polarity)
	if err != nil {
		return nil, fmt.Errorf("failed to search offerings: %w", err)
	}
	return offerings, nil
}

// CountProviders returns the number of OFFER-polarity offerings for a skill
func (s *Service) CountProviders(ctx context.Context, skillID uuid.UUID) (int64, error) {
	n, err := s.store.CountOfferings(ctx, skillID, models.PolarityOffer)
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return n, nil
}

// PopularSkills ranks active skills by how many participants offer them
func (s *Service) PopularSkills(ctx context.Context, limit int) ([]models.SkillPopularity, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	ranked, err := s.store.TopSkills(ctx, models.PolarityOffer, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank skills: %w", err)
	}
	return ranked, nil
}

// HasOffer reports whether participantID holds an OFFER offering for skillID
func (s *Service) HasOffer(ctx context.Context, participantID, skillID uuid.UUID) (bool, error) {
	_, err := s.store.FindOffering(ctx, participantID, skillID, models.PolarityOffer)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to find offering: %w", err)
}

func validateProficiency(p int) error {
	if p < models.MinProficiency || p > models.MaxProficiency {
		return ErrInvalidProficiency
	}
	return nil
}

func validateNote(n *string) error {
	if n != nil && models.TooLong(strings.TrimSpace(*n), models.MaxNoteLength) {
		return ErrNoteTooLong
	}
	return nil
}

func normalizeNote(n *string) *string {
	if n == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*n)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
