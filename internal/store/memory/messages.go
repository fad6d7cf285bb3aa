package memory

import (
	"context"
	"sort"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
)

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; ok {
		return store.ErrDuplicate
	}
	s.seq++
	s.msgOrder[m.ID] = s.seq
	s.messages[m.ID] = cloneMessage(*m)
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m = cloneMessage(m)
	return &m, nil
}

func (s *Store) SetMessageExchange(ctx context.Context, messageID, exchangeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return store.ErrNotFound
	}
	id := exchangeID
	m.ExchangeID = &id
	s.messages[messageID] = m
	return nil
}

func (s *Store) ListThread(ctx context.Context, exchangeID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messagesMatching(func(m models.Message) bool {
		return m.ExchangeID != nil && *m.ExchangeID == exchangeID
	}), nil
}

func (s *Store) ListConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messagesMatching(func(m models.Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	}), nil
}

func (s *Store) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.Read {
			m.Read = true
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListPartners(ctx context.Context, participantID uuid.UUID) ([]models.ConversationPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPartner := make(map[uuid.UUID]*models.ConversationPartner)
	lastSeq := make(map[uuid.UUID]int64)
	for id, m := range s.messages {
		var partner uuid.UUID
		switch participantID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		p, ok := byPartner[partner]
		if !ok {
			p = &models.ConversationPartner{PartnerID: partner}
			byPartner[partner] = p
		}
		if seq := s.msgOrder[id]; seq > lastSeq[partner] {
			lastSeq[partner] = seq
			p.LastMessage = m.Content
			p.LastMessageAt = m.CreatedAt
		}
		if m.ReceiverID == participantID && !m.Read {
			p.UnreadCount++
		}
	}

	out := make([]models.ConversationPartner, 0, len(byPartner))
	for _, p := range byPartner {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return lastSeq[out[i].PartnerID] > lastSeq[out[j].PartnerID]
	})
	return out, nil
}

func (s *Store) messagesMatching(keep func(models.Message) bool) []models.Message {
	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return s.msgOrder[out[i].ID] < s.msgOrder[out[j].ID]
	})
	return out
}

func cloneMessage(m models.Message) models.Message {
	if m.ExchangeID != nil {
		id := *m.ExchangeID
		m.ExchangeID = &id
	}
	return m
}
