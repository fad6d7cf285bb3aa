// Package participant is the participant directory the exchange core consults
// for existence checks and identity lookups.
package participant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
)

// Service errors
var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrInvalidParticipant  = fmt.Errorf("username must be 1 to %d characters and display name at most %d", models.MaxUsernameLength, models.MaxDisplayNameLength)
)

// Directory answers existence and identity questions about participants
type Directory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// Service handles participant directory operations
type Service struct {
	store store.Participants
}

var _ Directory = (*Service)(nil)

// NewService creates a new participant service
func NewService(s store.Participants) *Service {
	return &Service{store: s}
}

// RegisterRequest represents a request to add a participant
type RegisterRequest struct {
	Username    string                 `json:"username" binding:"required,min=1,max=50"`
	DisplayName string                 `json:"display_name,omitempty"`
	Role        models.ParticipantRole `json:"role,omitempty"`
}

// Register adds a participant to the directory
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*models.Participant, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || models.TooLong(username, models.MaxUsernameLength) {
		return nil, ErrInvalidParticipant
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if models.TooLong(displayName, models.MaxDisplayNameLength) {
		return nil, ErrInvalidParticipant
	}
	if displayName == "" {
		displayName = username
	}
	role := req.Role
	if role == "" {
		role = models.ParticipantRoleMember
	}

	p := &models.Participant{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: displayName,
		Role:        role,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return p, nil
}

// Get returns an active participant. Inactive participants are reported as absent.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	if !p.Active {
		return nil, ErrParticipantNotFound
	}
	return p, nil
}

// Exists reports whether id names an active participant
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrParticipantNotFound) {
		return false, nil
	}
	return false, err
}
