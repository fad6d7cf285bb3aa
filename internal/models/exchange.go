package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExchangeStatus represents the lifecycle state of an exchange
type ExchangeStatus string

const (
	ExchangeStatusPending    ExchangeStatus = "PENDING"
	ExchangeStatusAccepted   ExchangeStatus = "ACCEPTED"
	ExchangeStatusRejected   ExchangeStatus = "REJECTED"
	ExchangeStatusInProgress ExchangeStatus = "IN_PROGRESS"
	ExchangeStatusCompleted  ExchangeStatus = "COMPLETED"
	ExchangeStatusCancelled  ExchangeStatus = "CANCELLED"
)

// AllExchangeStatuses lists every status in lifecycle order
var AllExchangeStatuses = []ExchangeStatus{
	ExchangeStatusPending,
	ExchangeStatusAccepted,
	ExchangeStatusRejected,
	ExchangeStatusInProgress,
	ExchangeStatusCompleted,
	ExchangeStatusCancelled,
}

// ActiveExchangeStatuses are the non-terminal statuses
var ActiveExchangeStatuses = []ExchangeStatus{
	ExchangeStatusPending,
	ExchangeStatusAccepted,
	ExchangeStatusInProgress,
}

// Terminal reports whether no further transition is permitted from s
func (s ExchangeStatus) Terminal() bool {
	switch s {
	case ExchangeStatusCompleted, ExchangeStatusRejected, ExchangeStatusCancelled:
		return true
	case ExchangeStatusPending, ExchangeStatusAccepted, ExchangeStatusInProgress:
		return false
	default:
		panic(fmt.Sprintf("unhandled exchange status %q", string(s)))
	}
}

// Valid reports whether s is a known status
func (s ExchangeStatus) Valid() bool {
	for _, known := range AllExchangeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseExchangeStatus parses a status string
func ParseExchangeStatus(s string) (ExchangeStatus, error) {
	status := ExchangeStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown exchange status %q", s)
	}
	return status, nil
}

// Role is the part a participant plays in a specific exchange
type Role string

const (
	RoleNone      Role = ""
	RoleRequester Role = "requester"
	RoleProvider  Role = "provider"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Exchange is a bilateral trade: the requester offers OfferedSkillID in return
// for the provider teaching RequestedSkillID.
type Exchange struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	RequesterID       uuid.UUID      `json:"requester_id" db:"requester_id"`
	ProviderID        uuid.UUID      `json:"provider_id" db:"provider_id"`
	RequestedSkillID  uuid.UUID      `json:"requested_skill_id" db:"requested_skill_id"`
	OfferedSkillID    uuid.UUID      `json:"offered_skill_id" db:"offered_skill_id"`
	Status            ExchangeStatus `json:"status" db:"status"`
	Message           *string        `json:"message,omitempty" db:"message"`
	RequesterRating   *int           `json:"requester_rating,omitempty" db:"requester_rating"`
	ProviderRating    *int           `json:"provider_rating,omitempty" db:"provider_rating"`
	RequesterFeedback *string        `json:"requester_feedback,omitempty" db:"requester_feedback"`
	ProviderFeedback  *string        `json:"provider_feedback,omitempty" db:"provider_feedback"`
	ScheduledAt       *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	Version           int            `json:"version" db:"version"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// RoleOf returns the role participantID plays in the exchange, or RoleNone
func (e *Exchange) RoleOf(participantID uuid.UUID) Role {
	switch participantID {
	case e.RequesterID:
		return RoleRequester
	case e.ProviderID:
		return RoleProvider
	default:
		return RoleNone
	}
}

// Counterpart returns the other party of the exchange
func (e *Exchange) Counterpart(participantID uuid.UUID) uuid.UUID {
	if participantID == e.RequesterID {
		return e.ProviderID
	}
	return e.RequesterID
}

// Clone returns a deep copy so stores never share pointers with callers
func (e *Exchange) Clone() *Exchange {
	c := *e
	c.Message = cloneString(e.Message)
	c.RequesterRating = cloneInt(e.RequesterRating)
	c.ProviderRating = cloneInt(e.ProviderRating)
	c.RequesterFeedback = cloneString(e.RequesterFeedback)
	c.ProviderFeedback = cloneString(e.ProviderFeedback)
	c.ScheduledAt = cloneTime(e.ScheduledAt)
	c.CompletedAt = cloneTime(e.CompletedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
