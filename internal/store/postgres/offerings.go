package postgres

import (
	"context"
	"fmt"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const offeringColumns = `o.id, o.participant_id, o.skill_id, o.polarity, o.proficiency, o.available, o.note, o.created_at, o.updated_at`

func scanOffering(row pgx.Row) (*models.SkillOffering, error) {
	var o models.SkillOffering
	err := row.Scan(&o.ID, &o.ParticipantID, &o.SkillID, &o.Polarity, &o.Proficiency, &o.Available, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) queryOfferings(ctx context.Context, op, sql string, args ...any) ([]models.SkillOffering, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	offerings := make([]models.SkillOffering, 0)
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		offerings = append(offerings, *o)
	}
	return offerings, rows.Err()
}

func (s *Store) CreateOffering(ctx context.Context, o *models.SkillOffering) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO skill_offerings (id, participant_id, skill_id, polarity, proficiency, available, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.ParticipantID, o.SkillID, o.Polarity, o.Proficiency, o.Available, o.Note, o.CreatedAt, o.UpdatedAt)
	return translate(err, "create offering")
}

func (s *Store) GetOffering(ctx context.Context, id uuid.UUID) (*models.SkillOffering, error) {
	o, err := scanOffering(s.db.QueryRow(ctx, `SELECT `+offeringColumns+` FROM skill_offerings o WHERE o.id = $1`, id))
	if err != nil {
		return nil, translate(err, "get offering")
	}
	return o, nil
}

func (s *Store) FindOffering(ctx context.Context, participantID, skillID uuid.UUID, polarity models.Polarity) (*models.SkillOffering, error) {
	o, err := scanOffering(s.db.QueryRow(ctx, `
		SELECT `+offeringColumns+` FROM skill_offerings o
		WHERE o.participant_id = $1 AND o.skill_id = $2 AND o.polarity = $3
	`, participantID, skillID, polarity))
	if err != nil {
		return nil, translate(err, "find offering")
	}
	return o, nil
}

func (s *Store) UpdateOffering(ctx context.Context, o *models.SkillOffering) error {
	result, err := s.db.Exec(ctx, `
		UPDATE skill_offerings
		SET proficiency = $2, available = $3, note = $4, updated_at = $5
		WHERE id = $1
	`, o.ID, o.Proficiency, o.Available, o.Note, o.UpdatedAt)
	if err != nil {
		return translate(err, "update offering")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM skill_offerings WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete offering")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListOfferingsByParticipant(ctx context.Context, participantID uuid.UUID, polarity *models.Polarity) ([]models.SkillOffering, error) {
	if polarity == nil {
		return s.queryOfferings(ctx, "list offerings", `
			SELECT `+offeringColumns+` FROM skill_offerings o
			WHERE o.participant_id = $1
			ORDER BY o.created_at, o.id
		`, participantID)
	}
	return s.queryOfferings(ctx, "list offerings", `
		SELECT `+offeringColumns+` FROM skill_offerings o
		WHERE o.participant_id = $1 AND o.polarity = $2
		ORDER BY o.created_at, o.id
	`, participantID, *polarity)
}

func (s *Store) ListAvailableOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) ([]models.SkillOffering, error) {
	return s.queryOfferings(ctx, "list available offerings", `
		SELECT `+offeringColumns+` FROM skill_offerings o
		WHERE o.skill_id = $1 AND o.polarity = $2 AND o.available = TRUE
		ORDER BY o.created_at, o.id
	`, skillID, polarity)
}

func (s *Store) ListOfferingsByCategory(ctx context.Context, category string, polarity models.Polarity) ([]models.SkillOffering, error) {
	return s.queryOfferings(ctx, "list offerings by category", `
		SELECT `+offeringColumns+` FROM skill_offerings o
		JOIN skills sk ON sk.id = o.skill_id
		WHERE sk.active = TRUE AND sk.category = $1 AND o.polarity = $2
		ORDER BY o.created_at, o.id
	`, category, polarity)
}

func (s *Store) SearchOfferings(ctx context.Context, query string, polarity models.Polarity) ([]models.SkillOffering, error) {
	return s.queryOfferings(ctx, "search offerings", `
		SELECT `+offeringColumns+` FROM skill_offerings o
		JOIN skills sk ON sk.id = o.skill_id
		WHERE sk.active = TRUE AND o.polarity = $2
		  AND (STRPOS(LOWER(sk.name), LOWER($1)) > 0 OR STRPOS(LOWER(COALESCE(sk.description, '')), LOWER($1)) > 0)
		ORDER BY o.created_at, o.id
	`, query, polarity)
}

func (s *Store) CountOfferings(ctx context.Context, skillID uuid.UUID, polarity models.Polarity) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM skill_offerings WHERE skill_id = $1 AND polarity = $2
	`, skillID, polarity).Scan(&n)
	if err != nil {
		return 0, translate(err, "count offerings")
	}
	return n, nil
}

func (s *Store) TopSkills(ctx context.Context, polarity models.Polarity, limit int) ([]models.SkillPopularity, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT sk.id, sk.name, sk.category, sk.description, sk.active, sk.created_at, sk.updated_at,
		       COUNT(o.id) AS providers
		FROM skills sk
		LEFT JOIN skill_offerings o ON o.skill_id = sk.id AND o.polarity = $1
		WHERE sk.active = TRUE
		GROUP BY sk.id
		ORDER BY providers DESC, sk.name COLLATE "C"
		LIMIT $2
	`, polarity, limit)
	if err != nil {
		return nil, translate(err, "rank skills")
	}
	defer rows.Close()

	ranked := make([]models.SkillPopularity, 0, limit)
	for rows.Next() {
		var p models.SkillPopularity
		sk := &p.Skill
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Category, &sk.Description, &sk.Active, &sk.CreatedAt, &sk.UpdatedAt, &p.Providers); err != nil {
			return nil, fmt.Errorf("failed to scan skill popularity: %w", err)
		}
		ranked = append(ranked, p)
	}
	return ranked, rows.Err()
}
