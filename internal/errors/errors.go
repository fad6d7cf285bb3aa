package errors

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/catalog"
	"github.com/aimerfeng/SkillSwap/internal/conversation"
	"github.com/aimerfeng/SkillSwap/internal/exchange"
	"github.com/aimerfeng/SkillSwap/internal/offering"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/store"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Request errors (400xx)
	ErrInvalidRequest   ErrorCode = "40001"
	ErrValidationFailed ErrorCode = "40002"
	ErrInvalidJSON      ErrorCode = "40003"
	ErrMissingParameter ErrorCode = "40004"
	ErrSelfExchange     ErrorCode = "40005"
	ErrInvalidPairing   ErrorCode = "40006"
	ErrInvalidLink      ErrorCode = "40007"
	ErrInvalidRating    ErrorCode = "40008"

	// Authentication errors (401xx)
	ErrUnauthorized ErrorCode = "40100"
	ErrTokenExpired ErrorCode = "40102"

	// Authorization errors (403xx)
	ErrForbidden ErrorCode = "40301"
	ErrNotOwner  ErrorCode = "40302"

	// Resource errors (404xx)
	ErrNotFound            ErrorCode = "40400"
	ErrSkillNotFound       ErrorCode = "40401"
	ErrOfferingNotFound    ErrorCode = "40402"
	ErrExchangeNotFound    ErrorCode = "40403"
	ErrParticipantNotFound ErrorCode = "40404"
	ErrMessageNotFound     ErrorCode = "40405"

	// State errors (409xx)
	ErrConflict          ErrorCode = "40901"
	ErrDuplicateName     ErrorCode = "40902"
	ErrDuplicateRating   ErrorCode = "40903"
	ErrIllegalTransition ErrorCode = "40904"
	ErrContention        ErrorCode = "40905"

	// Rate limit errors (429xx)
	ErrRateLimited ErrorCode = "42902"

	// Server errors (500xx)
	ErrInternalServer     ErrorCode = "50001"
	ErrStorageUnavailable ErrorCode = "50301"
)

// APIError represents a standardized API error
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	Timestamp  string    `json:"timestamp"`
	Path       string    `json:"path,omitempty"`
	Method     string    `json:"method,omitempty"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the error response format
type ErrorResponse struct {
	Error         APIError `json:"error"`
	RequestID     string   `json:"request_id"`
	CorrelationID string   `json:"correlation_id"`
}

// NewErrorResponse wraps an API error with request metadata
func NewErrorResponse(apiErr *APIError, requestID, correlationID, path, method string) *ErrorResponse {
	e := *apiErr
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	e.Path = path
	e.Method = method
	if e.HTTPStatus == 0 {
		e.HTTPStatus = GetHTTPStatusFromCode(e.Code)
	}
	return &ErrorResponse{
		Error:         e,
		RequestID:     requestID,
		CorrelationID: correlationID,
	}
}

// New creates an API error whose HTTP status is derived from the code
func New(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		HTTPStatus: GetHTTPStatusFromCode(code),
	}
}

// NewValidationError creates a validation error with details
func NewValidationError(details any) *APIError {
	return &APIError{
		Code:       ErrValidationFailed,
		Message:    "Validation failed",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *APIError {
	return New(ErrInvalidRequest, message)
}

// Common errors
var (
	ErrUnauthorizedError   = New(ErrUnauthorized, "Authentication required")
	ErrTokenExpiredError   = New(ErrTokenExpired, "Token has expired")
	ErrForbiddenError      = New(ErrForbidden, "Access denied")
	ErrNotFoundError       = New(ErrNotFound, "Resource not found")
	ErrRateLimitedError    = New(ErrRateLimited, "Rate limit exceeded")
	ErrInternalServerError = New(ErrInternalServer, "Internal server error")
)

// GetHTTPStatusFromCode maps an error code to its HTTP status
func GetHTTPStatusFromCode(code ErrorCode) int {
	switch code {
	case ErrInvalidRequest, ErrValidationFailed, ErrInvalidJSON, ErrMissingParameter,
		ErrSelfExchange, ErrInvalidPairing, ErrInvalidLink, ErrInvalidRating:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrTokenExpired:
		return http.StatusUnauthorized
	case ErrForbidden, ErrNotOwner:
		return http.StatusForbidden
	case ErrNotFound, ErrSkillNotFound, ErrOfferingNotFound, ErrExchangeNotFound,
		ErrParticipantNotFound, ErrMessageNotFound:
		return http.StatusNotFound
	case ErrConflict, ErrDuplicateName, ErrDuplicateRating, ErrIllegalTransition, ErrContention:
		return http.StatusConflict
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether re-issuing the same request may succeed.
// Only lost optimistic-concurrency races qualify.
func IsRetryable(code ErrorCode) bool {
	return code == ErrContention
}

type domainMapping struct {
	target error
	code   ErrorCode
}

var domainMappings = []domainMapping{
	{participant.ErrParticipantNotFound, ErrParticipantNotFound},
	{participant.ErrDuplicateUsername, ErrConflict},
	{participant.ErrInvalidParticipant, ErrValidationFailed},

	{catalog.ErrSkillNotFound, ErrSkillNotFound},
	{catalog.ErrDuplicateName, ErrDuplicateName},
	{catalog.ErrInvalidSkill, ErrValidationFailed},

	{offering.ErrOfferingNotFound, ErrOfferingNotFound},
	{offering.ErrSkillUnavailable, ErrSkillNotFound},
	{offering.ErrOfferingExists, ErrConflict},
	{offering.ErrInvalidProficiency, ErrValidationFailed},
	{offering.ErrInvalidPolarity, ErrValidationFailed},
	{offering.ErrNoteTooLong, ErrValidationFailed},
	{offering.ErrNotOwner, ErrNotOwner},

	{exchange.ErrExchangeNotFound, ErrExchangeNotFound},
	{exchange.ErrSelfExchange, ErrSelfExchange},
	{exchange.ErrInvalidPairing, ErrInvalidPairing},
	{exchange.ErrForbidden, ErrForbidden},
	{exchange.ErrIllegalTransition, ErrIllegalTransition},
	{exchange.ErrDuplicateRating, ErrDuplicateRating},
	{exchange.ErrInvalidRating, ErrInvalidRating},
	{exchange.ErrInvalidStatus, ErrValidationFailed},
	{exchange.ErrContention, ErrContention},
	{exchange.ErrTextTooLong, ErrValidationFailed},

	{conversation.ErrInvalidLink, ErrInvalidLink},
	{conversation.ErrMessageNotFound, ErrMessageNotFound},
	{conversation.ErrEmptyContent, ErrValidationFailed},
	{conversation.ErrSelfMessage, ErrValidationFailed},
	{conversation.ErrNotParty, ErrForbidden},

	// Storage backstops for input that slipped past service validation
	{store.ErrValueTooLong, ErrValidationFailed},
	{store.ErrMissingRef, ErrNotFound},
}

// FromDomain converts a service error into an API error. Errors outside
// the domain taxonomy become an opaque internal error.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range domainMappings {
		if stderrors.Is(err, m.target) {
			return New(m.code, m.target.Error())
		}
	}
	return ErrInternalServerError
}
