// Package conversation threads free-text messages under exchanges.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxContentLength bounds a message body, in characters
const MaxContentLength = models.MaxMessageContentLength

// Service errors
var (
	ErrInvalidLink     = errors.New("message parties do not match the exchange parties")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyContent    = fmt.Errorf("message content must be between 1 and %d characters", MaxContentLength)
	ErrSelfMessage     = errors.New("sender and receiver must differ")
	ErrNotParty        = errors.New("participant is not a party to this conversation")
)

// ExchangeLookup resolves exchanges by id without a party check
type ExchangeLookup interface {
	Lookup(ctx context.Context, exchangeID uuid.UUID) (*models.Exchange, error)
}

// Service handles message operations
type Service struct {
	store        store.Messages
	exchanges    ExchangeLookup
	participants participant.Directory
}

// NewService creates a new conversation service
func NewService(s store.Messages, exchanges ExchangeLookup, participants participant.Directory) *Service {
	return &Service{
		store:        s,
		exchanges:    exchanges,
		participants: participants,
	}
}

// SendMessageRequest represents a request to send a message
type SendMessageRequest struct {
	ReceiverID uuid.UUID  `json:"receiver_id" binding:"required"`
	Content    string     `json:"content" binding:"required"`
	ExchangeID *uuid.UUID `json:"exchange_id,omitempty"`
}

// Send stores a message from senderID. When an exchange is given, the two
// message parties must be exactly the exchange's two parties.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, req *SendMessageRequest) (*models.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" || models.TooLong(content, MaxContentLength) {
		return nil, ErrEmptyContent
	}
	if senderID == req.ReceiverID {
		return nil, ErrSelfMessage
	}
	for _, id := range []uuid.UUID{senderID, req.ReceiverID} {
		if _, err := s.participants.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	m := &models.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if req.ExchangeID != nil {
		if err := s.checkLink(ctx, m, *req.ExchangeID); err != nil {
			return nil, err
		}
		id := *req.ExchangeID
		m.ExchangeID = &id
	}

	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	monitoring.RecordMessageSent(m.ExchangeID != nil)
	return m, nil
}

// Attach links an existing message to an exchange. Only the message's sender
// or receiver may attach it.
func (s *Service) Attach(ctx context.Context, messageID, exchangeID, actorID uuid.UUID) (*models.Message, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if actorID != m.SenderID && actorID != m.ReceiverID {
		return nil, ErrNotParty
	}
	if err := s.checkLink(ctx, m, exchangeID); err != nil {
		return nil, err
	}

	if err := s.store.SetMessageExchange(ctx, messageID, exchangeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to link message: %w", err)
	}
	m.ExchangeID = &exchangeID

	log.Debug().
		Str("message_id", messageID.String()).
		Str("exchange_id", exchangeID.String()).
		Msg("Message attached to exchange")
	return m, nil
}

func (s *Service) checkLink(ctx context.Context, m *models.Message, exchangeID uuid.UUID) error {
	e, err := s.exchanges.Lookup(ctx, exchangeID)
	if err != nil {
		return err
	}
	if !LinkValid(m, e) {
		return ErrInvalidLink
	}
	return nil
}

// LinkValid reports whether {sender, receiver} equals {requester, provider}
func LinkValid(m *models.Message, e *models.Exchange) bool {
	return (m.SenderID == e.RequesterID && m.ReceiverID == e.ProviderID) ||
		(m.SenderID == e.ProviderID && m.ReceiverID == e.RequesterID)
}

// ThreadForExchange returns the messages linked to an exchange, oldest first.
// Only the exchange's parties may read the thread.
func (s *Service) ThreadForExchange(ctx context.Context, exchangeID, actorID uuid.UUID) ([]models.Message, error) {
	e, err := s.exchanges.Lookup(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if e.RoleOf(actorID) == models.RoleNone {
		return nil, ErrNotParty
	}
	msgs, err := s.store.ListThread(ctx, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread: %w", err)
	}
	return msgs, nil
}

// Conversation returns the two-party history oldest first and marks the
// messages actorID received from otherID as read
func (s *Service) Conversation(ctx context.Context, actorID, otherID uuid.UUID) ([]models.Message, error) {
	msgs, err := s.store.ListConversation(ctx, actorID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	marked, err := s.store.MarkRead(ctx, actorID, otherID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	if marked > 0 {
		for i := range msgs {
			if msgs[i].ReceiverID == actorID {
				msgs[i].Read = true
			}
		}
	}
	return msgs, nil
}

// UnreadCount returns how many messages participantID has not read
func (s *Service) UnreadCount(ctx context.Context, participantID uuid.UUID) (int64, error) {
	n, err := s.store.CountUnread(ctx, participantID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

// Partners lists everyone participantID has exchanged messages with, most recent first
func (s *Service) Partners(ctx context.Context, participantID uuid.UUID) ([]models.ConversationPartner, error) {
	partners, err := s.store.ListPartners(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation partners: %w", err)
	}
	return partners, nil
}
