package server

import (
	"net/http"

	"github.com/aimerfeng/SkillSwap/internal/conversation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachRequest names the exchange a message should be linked to
type AttachRequest struct {
	ExchangeID uuid.UUID `json:"exchange_id" binding:"required"`
}

func (s *APIServer) handleSendMessage(c *gin.Context) {
	senderID, ok := actor(c)
	if !ok {
		return
	}
	var req conversation.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := s.conversations.Send(c.Request.Context(), senderID, &req)
	if err != nil {
		respondDomainError(c, "send_message", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *APIServer) handleAttachMessage(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	messageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req AttachRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := s.conversations.Attach(c.Request.Context(), messageID, req.ExchangeID, participantID)
	if err != nil {
		respondDomainError(c, "attach_message", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// handleExchangeThread returns the messages linked to an exchange, oldest first
func (s *APIServer) handleExchangeThread(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	exchangeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	messages, err := s.conversations.ThreadForExchange(c.Request.Context(), exchangeID, participantID)
	if err != nil {
		respondDomainError(c, "exchange_thread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *APIServer) handleConversation(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}
	otherID, ok := uuidParam(c, "participantId")
	if !ok {
		return
	}

	messages, err := s.conversations.Conversation(c.Request.Context(), participantID, otherID)
	if err != nil {
		respondDomainError(c, "conversation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *APIServer) handleUnreadCount(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}

	count, err := s.conversations.UnreadCount(c.Request.Context(), participantID)
	if err != nil {
		respondDomainError(c, "unread_count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *APIServer) handleConversationPartners(c *gin.Context) {
	participantID, ok := actor(c)
	if !ok {
		return
	}

	partners, err := s.conversations.Partners(c.Request.Context(), participantID)
	if err != nil {
		respondDomainError(c, "conversation_partners", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partners": partners})
}
