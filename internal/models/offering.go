package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Polarity tells whether an offering is something the participant can teach or wants to learn
type Polarity string

const (
	PolarityOffer   Polarity = "OFFER"
	PolarityRequest Polarity = "REQUEST"
)

// Valid reports whether p is one of the known polarities
func (p Polarity) Valid() bool {
	switch p {
	case PolarityOffer, PolarityRequest:
		return true
	default:
		return false
	}
}

// ParsePolarity parses a polarity string as stored and transmitted
func ParsePolarity(s string) (Polarity, error) {
	p := Polarity(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown polarity %q", s)
	}
	return p, nil
}

// Proficiency bounds
const (
	MinProficiency = 1
	MaxProficiency = 5
)

// SkillOffering links a participant to a skill they offer or request.
// (ParticipantID, SkillID, Polarity) is unique.
type SkillOffering struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	SkillID       uuid.UUID `json:"skill_id" db:"skill_id"`
	Polarity      Polarity  `json:"polarity" db:"polarity"`
	Proficiency   int       `json:"proficiency" db:"proficiency"`
	Available     bool      `json:"available" db:"available"`
	Note          *string   `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
