package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a free-text note between two participants, optionally threaded under an exchange
type Message struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SenderID   uuid.UUID  `json:"sender_id" db:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id" db:"receiver_id"`
	Content    string     `json:"content" db:"content"`
	ExchangeID *uuid.UUID `json:"exchange_id,omitempty" db:"exchange_id"`
	Read       bool       `json:"read" db:"is_read"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ConversationPartner summarizes a conversation from one participant's point of view
type ConversationPartner struct {
	PartnerID     uuid.UUID `json:"partner_id"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}
