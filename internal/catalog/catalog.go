// Package catalog owns the set of known skills.
//
// Skills are never hard-deleted: exchanges and offerings keep referencing them by id,
// so deactivation only hides a skill from discovery.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service errors
var (
	ErrSkillNotFound = errors.New("skill not found")
	ErrDuplicateName = errors.New("skill name already registered")
	ErrInvalidSkill  = fmt.Errorf("skill name (1-%d), category (1-%d) and description (0-%d) out of bounds",
		models.MaxSkillNameLength, models.MaxCategoryLength, models.MaxDescriptionLength)
)

// Service handles skill catalog operations
type Service struct {
	store store.Skills
}

// NewService creates a new catalog service
func NewService(s store.Skills) *Service {
	return &Service{store: s}
}

// RegisterSkillRequest represents a request to add a skill
type RegisterSkillRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Category    string  `json:"category" binding:"required,min=1,max=50"`
	Description *string `json:"description,omitempty"`
}

// UpdateSkillRequest represents an administrative edit; nil fields are left unchanged
type UpdateSkillRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Register adds a skill. Names are unique case-insensitively, including
// against inactive skills.
func (s *Service) Register(ctx context.Context, req *RegisterSkillRequest) (*models.Skill, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if !validName(name) || !validCategory(category) || !validDescription(req.Description) {
		return nil, ErrInvalidSkill
	}

	now := time.Now().UTC()
	skill := &models.Skill{
		ID:          uuid.New(),
		Name:        name,
		Category:    category,
		Description: normalizeDescription(req.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateSkill(ctx, skill); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	monitoring.RecordSkillRegistered()
	log.Info().
		Str("skill_id", skill.ID.String()).
		Str("name", skill.Name).
		Str("category", skill.Category).
		Msg("Skill registered")

	return skill, nil
}

// Get returns a skill by id regardless of its active flag
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	skill, err := s.store.GetSkill(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	return skill, nil
}

// Update edits a skill's name, category or description
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateSkillRequest) (*models.Skill, error) {
	skill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !validName(name) {
			return nil, ErrInvalidSkill
		}
		skill.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if !validCategory(category) {
			return nil, ErrInvalidSkill
		}
		skill.Category = category
	}
	if req.Description != nil {
		if !validDescription(req.Description) {
			return nil, ErrInvalidSkill
		}
		skill.Description = normalizeDescription(req.Description)
	}

	if err := s.save(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// Deactivate hides a skill from discovery. Deactivating an inactive skill is a no-op.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	return s.setActive(ctx, id, false)
}

// Reactivate makes a deactivated skill discoverable again
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id uuid.UUID, active bool) (*models.Skill, error) {
	skill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if skill.Active == active {
		return skill, nil
	}
	skill.Active = active
	if err := s.save(ctx, skill); err != nil {
		return nil, err
	}
	log.Info().Str("skill_id", id.String()).Bool("active", active).Msg("Skill active flag changed")
	return skill, nil
}

func (s *Service) save(ctx context.Context, skill *models.Skill) error {
	skill.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateSkill(ctx, skill); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return ErrDuplicateName
		case errors.Is(err, store.ErrNotFound):
			return ErrSkillNotFound
		}
		return fmt.Errorf("failed to update skill: %w", err)
	}
	return nil
}

// ListActive returns active skills ordered by category then name
func (s *Service) ListActive(ctx context.Context) ([]models.Skill, error) {
	skills, err := s.store.ListActiveSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

// ListByCategory returns the active skills of one category ordered by name
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Skill, error) {
	skills, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Skill, 0)
	for _, sk := range skills {
		if sk.Category == category {
			out = append(out, sk)
		}
	}
	return out, nil
}

// Search matches query case-insensitively against active skill names and descriptions.
// An empty query matches every active skill.
func (s *Service) Search(ctx context.Context, query string) ([]models.Skill, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListActive(ctx)
	}
	skills, err := s.store.SearchActiveSkills(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search skills: %w", err)
	}
	return skills, nil
}

// ListCategories returns the distinct categories of active skills in lexicographic order
func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func validName(name string) bool {
	return name != "" && !models.TooLong(name, models.MaxSkillNameLength)
}

func validCategory(category string) bool {
	return category != "" && !models.TooLong(category, models.MaxCategoryLength)
}

func validDescription(d *string) bool {
	if d == nil {
		return true
	}
	return !models.TooLong(strings.TrimSpace(*d), models.MaxDescriptionLength)
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
