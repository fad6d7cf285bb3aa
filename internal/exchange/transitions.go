package exchange

import (
	"fmt"

	"github.com/aimerfeng/SkillSwap/internal/models"
)

// Action is a participant command against an existing exchange
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionSchedule Action = "schedule"
	ActionStart    Action = "start"
	ActionCancel   Action = "cancel"
	ActionRate     Action = "rate"
)

// AllActions lists every action
var AllActions = []Action{ActionAccept, ActionReject, ActionSchedule, ActionStart, ActionCancel, ActionRate}

// legalFrom reports whether action may be applied to an exchange in status.
// Terminal statuses admit nothing.
func legalFrom(action Action, status models.ExchangeStatus) bool {
	switch status {
	case models.ExchangeStatusPending:
		return action == ActionAccept || action == ActionReject || action == ActionCancel
	case models.ExchangeStatusAccepted:
		return action == ActionSchedule || action == ActionStart || action == ActionCancel
	case models.ExchangeStatusInProgress:
		return action == ActionRate || action == ActionCancel
	case models.ExchangeStatusCompleted, models.ExchangeStatusRejected, models.ExchangeStatusCancelled:
		return false
	default:
		panic(fmt.Sprintf("unhandled exchange status %q", string(status)))
	}
}

// permitted reports whether a party in role may issue action
func permitted(action Action, role models.Role) bool {
	switch action {
	case ActionAccept, ActionReject:
		return role == models.RoleProvider
	case ActionSchedule, ActionStart, ActionCancel, ActionRate:
		return role == models.RoleRequester || role == models.RoleProvider
	default:
		panic(fmt.Sprintf("unhandled exchange action %q", string(action)))
	}
}

// target returns the status an exchange moves to when action succeeds.
// Rating keeps the exchange IN_PROGRESS until both ratings are present.
func target(action Action, e *models.Exchange) models.ExchangeStatus {
	switch action {
	case ActionAccept:
		return models.ExchangeStatusAccepted
	case ActionReject:
		return models.ExchangeStatusRejected
	case ActionSchedule, ActionStart:
		return models.ExchangeStatusInProgress
	case ActionCancel:
		return models.ExchangeStatusCancelled
	case ActionRate:
		if e.RequesterRating != nil && e.ProviderRating != nil {
			return models.ExchangeStatusCompleted
		}
		return models.ExchangeStatusInProgress
	default:
		panic(fmt.Sprintf("unhandled exchange action %q", string(action)))
	}
}

// ratingSlot returns the rating already recorded for the party in role
func ratingSlot(e *models.Exchange, role models.Role) *int {
	switch role {
	case models.RoleRequester:
		return e.RequesterRating
	case models.RoleProvider:
		return e.ProviderRating
	default:
		return nil
	}
}
