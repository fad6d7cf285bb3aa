package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole represents the platform role of a participant
type ParticipantRole string

const (
	ParticipantRoleMember ParticipantRole = "member"
	ParticipantRoleAdmin  ParticipantRole = "admin"
)

// Participant represents a user who can offer or request skills
type Participant struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Username    string          `json:"username" db:"username"`
	DisplayName string          `json:"display_name" db:"display_name"`
	Role        ParticipantRole `json:"role" db:"role"`
	Active      bool            `json:"active" db:"active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
