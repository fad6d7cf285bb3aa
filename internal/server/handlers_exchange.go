package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/exchange"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ScheduleRequest carries the agreed session time; omitted means now
type ScheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RateRequest carries a party's rating of the other party
type RateRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

func (s *APIServer) handleCreateExchange(c *gin.Context) {
	requesterID, ok := actor(c)
	if !ok {
		return
	}
	var req exchange.CreateExchangeRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := s.exchanges.Create(c.Request.Context(), requesterID, &req)
	if err != nil {
		respondDomainError(c, "create_exchange", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// handleListExchanges lists the caller's exchanges, optionally filtered by
// ?status=PENDING,ACCEPTED (or repeated status parameters)
func (s *APIServer) handleListExchanges(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}

	var statuses []models.ExchangeStatus
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				statuses = append(statuses, models.ExchangeStatus(strings.ToUpper(part)))
			}
		}
	}

	exchanges, err := s.exchanges.ByParticipant(c.Request.Context(), participantID, statuses...)
	if err != nil {
		respondDomainError(c, "list_exchanges", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchanges": exchanges})
}

func (s *APIServer) handleActiveExchanges(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}

	exchanges, err := s.exchanges.ActiveForParticipant(c.Request.Context(), participantID)
	if err != nil {
		respondDomainError(c, "active_exchanges", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchanges": exchanges})
}

func (s *APIServer) handleGetExchange(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	e, err := s.exchanges.Get(c.Request.Context(), id, participantID)
	if err != nil {
		respondDomainError(c, "get_exchange", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

type transitionFunc func(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error)

// runTransition resolves the actor and exchange id, then applies fn
func (s *APIServer) runTransition(c *gin.Context, operation string, fn transitionFunc) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	e, err := fn(c.Request.Context(), id, participantID)
	if err != nil {
		respondDomainError(c, operation, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *APIServer) handleAcceptExchange(c *gin.Context) {
	s.runTransition(c, "accept_exchange", s.exchanges.Accept)
}

func (s *APIServer) handleRejectExchange(c *gin.Context) {
	s.runTransition(c, "reject_exchange", s.exchanges.Reject)
}

func (s *APIServer) handleStartExchange(c *gin.Context) {
	s.runTransition(c, "start_exchange", s.exchanges.Start)
}

func (s *APIServer) handleScheduleExchange(c *gin.Context) {
	var req ScheduleRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	var when time.Time
	if req.ScheduledAt != nil {
		when = *req.ScheduledAt
	}

	s.runTransition(c, "schedule_exchange", func(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
		return s.exchanges.Schedule(ctx, exchangeID, actorID, when)
	})
}

func (s *APIServer) handleCancelExchange(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	s.runTransition(c, "cancel_exchange", func(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
		return s.exchanges.Cancel(ctx, exchangeID, actorID, req.Reason)
	})
}

func (s *APIServer) handleRateExchange(c *gin.Context) {
	var req RateRequest
	if !bindJSON(c, &req) {
		return
	}

	s.runTransition(c, "rate_exchange", func(ctx context.Context, exchangeID, actorID uuid.UUID) (*models.Exchange, error) {
		return s.exchanges.SubmitRating(ctx, exchangeID, actorID, req.Rating, req.Feedback)
	})
}
