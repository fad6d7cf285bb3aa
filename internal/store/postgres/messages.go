package postgres

import (
	"context"
	"fmt"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, sender_id, receiver_id, content, exchange_id, is_read, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.ExchangeID, &m.Read, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) queryMessages(ctx context.Context, op, sql string, args ...any) ([]models.Message, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, exchange_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.SenderID, m.ReceiverID, m.Content, m.ExchangeID, m.Read, m.CreatedAt)
	return translate(err, "create message")
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m, err := scanMessage(s.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get message")
	}
	return m, nil
}

func (s *Store) SetMessageExchange(ctx context.Context, messageID, exchangeID uuid.UUID) error {
	result, err := s.db.Exec(ctx, `UPDATE messages SET exchange_id = $2 WHERE id = $1`, messageID, exchangeID)
	if err != nil {
		return translate(err, "link message")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListThread(ctx context.Context, exchangeID uuid.UUID) ([]models.Message, error) {
	return s.queryMessages(ctx, "list thread", `
		SELECT `+messageColumns+` FROM messages
		WHERE exchange_id = $1
		ORDER BY created_at, seq
	`, exchangeID)
}

func (s *Store) ListConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	return s.queryMessages(ctx, "list conversation", `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, seq
	`, a, b)
}

func (s *Store) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	result, err := s.db.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
	`, receiverID, senderID)
	if err != nil {
		return 0, translate(err, "mark messages read")
	}
	return result.RowsAffected(), nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE
	`, receiverID).Scan(&n)
	if err != nil {
		return 0, translate(err, "count unread messages")
	}
	return n, nil
}

func (s *Store) ListPartners(ctx context.Context, participantID uuid.UUID) ([]models.ConversationPartner, error) {
	rows, err := s.db.Query(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (partner_id)
			       partner_id, content, created_at, seq
			FROM (
				SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id,
				       content, created_at, seq
				FROM messages
				WHERE sender_id = $1 OR receiver_id = $1
			) m
			ORDER BY partner_id, seq DESC
		)
		SELECT l.partner_id, l.content, l.created_at,
		       (SELECT COUNT(*) FROM messages u
		        WHERE u.receiver_id = $1 AND u.sender_id = l.partner_id AND u.is_read = FALSE)
		FROM latest l
		ORDER BY l.seq DESC
	`, participantID)
	if err != nil {
		return nil, translate(err, "list conversation partners")
	}
	defer rows.Close()

	partners := make([]models.ConversationPartner, 0)
	for rows.Next() {
		var p models.ConversationPartner
		if err := rows.Scan(&p.PartnerID, &p.LastMessage, &p.LastMessageAt, &p.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}
