package models

import (
	"time"

	"github.com/google/uuid"
)

// Skill represents an entry in the skill catalog.
// Skills are never hard-deleted; deactivation only hides them from discovery.
type Skill struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Description *string   `json:"description,omitempty" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SkillPopularity pairs a skill with the number of participants offering it
type SkillPopularity struct {
	Skill     Skill `json:"skill"`
	Providers int64 `json:"providers"`
}
