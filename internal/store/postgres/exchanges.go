package postgres

import (
	"context"
	"fmt"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exchangeColumns = `id, requester_id, provider_id, requested_skill_id, offered_skill_id, status, message,
	requester_rating, provider_rating, requester_feedback, provider_feedback,
	scheduled_at, completed_at, version, created_at, updated_at`

func scanExchange(row pgx.Row) (*models.Exchange, error) {
	var e models.Exchange
	err := row.Scan(
		&e.ID, &e.RequesterID, &e.ProviderID, &e.RequestedSkillID, &e.OfferedSkillID, &e.Status, &e.Message,
		&e.RequesterRating, &e.ProviderRating, &e.RequesterFeedback, &e.ProviderFeedback,
		&e.ScheduledAt, &e.CompletedAt, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateExchange(ctx context.Context, e *models.Exchange) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO exchanges (id, requester_id, provider_id, requested_skill_id, offered_skill_id,
		                       status, message, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.RequesterID, e.ProviderID, e.RequestedSkillID, e.OfferedSkillID,
		e.Status, e.Message, e.Version, e.CreatedAt, e.UpdatedAt)
	return translate(err, "create exchange")
}

func (s *Store) GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	e, err := scanExchange(s.db.QueryRow(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get exchange")
	}
	return e, nil
}

// UpdateExchange is a compare-and-swap on the version column. Distinguishing a missing
// row from a stale version needs a second lookup only on the slow path.
func (s *Store) UpdateExchange(ctx context.Context, e *models.Exchange, expectedVersion int) error {
	result, err := s.db.Exec(ctx, `
		UPDATE exchanges
		SET status = $3, requester_rating = $4, provider_rating = $5,
		    requester_feedback = $6, provider_feedback = $7,
		    scheduled_at = $8, completed_at = $9, version = $10, updated_at = $11
		WHERE id = $1 AND version = $2
	`, e.ID, expectedVersion, e.Status, e.RequesterRating, e.ProviderRating,
		e.RequesterFeedback, e.ProviderFeedback, e.ScheduledAt, e.CompletedAt, e.Version, e.UpdatedAt)
	if err != nil {
		return translate(err, "update exchange")
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exchanges WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
		return translate(err, "check exchange")
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrVersionConflict
}

func (s *Store) ListExchangesByParticipant(ctx context.Context, participantID uuid.UUID, statuses []models.ExchangeStatus) ([]models.Exchange, error) {
	filter := make([]string, 0, len(statuses))
	for _, st := range statuses {
		filter = append(filter, string(st))
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+exchangeColumns+` FROM exchanges
		WHERE (requester_id = $1 OR provider_id = $1)
		  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
		ORDER BY created_at DESC, id DESC
	`, participantID, filter)
	if err != nil {
		return nil, translate(err, "list exchanges")
	}
	defer rows.Close()

	exchanges := make([]models.Exchange, 0)
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, *e)
	}
	return exchanges, rows.Err()
}

func (s *Store) CountCompletedExchanges(ctx context.Context, participantID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM exchanges
		WHERE (requester_id = $1 OR provider_id = $1) AND status = $2
	`, participantID, models.ExchangeStatusCompleted).Scan(&n)
	if err != nil {
		return 0, translate(err, "count completed exchanges")
	}
	return n, nil
}

func (s *Store) CompletedRatingTotals(ctx context.Context, participantID uuid.UUID, role models.Role) (store.RatingTotals, error) {
	var query string
	switch role {
	case models.RoleProvider:
		query = `
			SELECT COALESCE(SUM(requester_rating), 0), COUNT(requester_rating)
			FROM exchanges WHERE provider_id = $1 AND status = $2`
	case models.RoleRequester:
		query = `
			SELECT COALESCE(SUM(provider_rating), 0), COUNT(provider_rating)
			FROM exchanges WHERE requester_id = $1 AND status = $2`
	case models.RoleNone:
		return store.RatingTotals{}, fmt.Errorf("rating totals need a role")
	default:
		return store.RatingTotals{}, fmt.Errorf("unknown role %q", role)
	}

	var totals store.RatingTotals
	if err := s.db.QueryRow(ctx, query, participantID, models.ExchangeStatusCompleted).Scan(&totals.Sum, &totals.Count); err != nil {
		return store.RatingTotals{}, translate(err, "sum ratings")
	}
	return totals, nil
}

func (s *Store) CountExchangesByStatus(ctx context.Context) (map[models.ExchangeStatus]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM exchanges GROUP BY status`)
	if err != nil {
		return nil, translate(err, "count exchanges by status")
	}
	defer rows.Close()

	counts := make(map[models.ExchangeStatus]int64, len(models.AllExchangeStatuses))
	for rows.Next() {
		var status models.ExchangeStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
