// Package postgres implements store.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes translated to store sentinels
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	stringTooLong       = "22001"
)

// Store is the PostgreSQL-backed store
type Store struct {
	db *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an existing pool
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the pool is owned by the database package
func (s *Store) Close() {}

// translate maps driver errors onto store sentinels
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return store.ErrDuplicate
		case foreignKeyViolation:
			return store.ErrMissingRef
		case stringTooLong:
			return store.ErrValueTooLong
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// ============================================
// Participants
// ============================================

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO participants (id, username, display_name, role, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.Username, p.DisplayName, p.Role, p.Active).Scan(&p.CreatedAt)
	return translate(err, "create participant")
}

func (s *Store) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	var p models.Participant
	err := s.db.QueryRow(ctx, `
		SELECT id, username, display_name, role, active, created_at
		FROM participants WHERE id = $1
	`, id).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, translate(err, "get participant")
	}
	return &p, nil
}

// ============================================
// Skills
// ============================================

const skillColumns = `id, name, category, description, active, created_at, updated_at`

func scanSkill(row pgx.Row) (*models.Skill, error) {
	var sk models.Skill
	err := row.Scan(&sk.ID, &sk.Name, &sk.Category, &sk.Description, &sk.Active, &sk.CreatedAt, &sk.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sk, nil
}

func collectSkills(rows pgx.Rows) ([]models.Skill, error) {
	defer rows.Close()
	skills := make([]models.Skill, 0)
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, *sk)
	}
	return skills, rows.Err()
}

func (s *Store) CreateSkill(ctx context.Context, sk *models.Skill) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO skills (id, name, category, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sk.ID, sk.Name, sk.Category, sk.Description, sk.Active, sk.CreatedAt, sk.UpdatedAt)
	return translate(err, "create skill")
}

func (s *Store) GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	sk, err := scanSkill(s.db.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get skill")
	}
	return sk, nil
}

func (s *Store) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	sk, err := scanSkill(s.db.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE LOWER(name) = LOWER($1)`, name))
	if err != nil {
		return nil, translate(err, "get skill by name")
	}
	return sk, nil
}

func (s *Store) UpdateSkill(ctx context.Context, sk *models.Skill) error {
	result, err := s.db.Exec(ctx, `
		UPDATE skills
		SET name = $2, category = $3, description = $4, active = $5, updated_at = $6
		WHERE id = $1
	`, sk.ID, sk.Name, sk.Category, sk.Description, sk.Active, sk.UpdatedAt)
	if err != nil {
		return translate(err, "update skill")
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveSkills(ctx context.Context) ([]models.Skill, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+skillColumns+` FROM skills
		WHERE active = TRUE
		ORDER BY category COLLATE "C", name COLLATE "C"
	`)
	if err != nil {
		return nil, translate(err, "list skills")
	}
	return collectSkills(rows)
}

func (s *Store) SearchActiveSkills(ctx context.Context, query string) ([]models.Skill, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+skillColumns+` FROM skills
		WHERE active = TRUE
		  AND (STRPOS(LOWER(name), LOWER($1)) > 0 OR STRPOS(LOWER(COALESCE(description, '')), LOWER($1)) > 0)
		ORDER BY category COLLATE "C", name COLLATE "C"
	`, query)
	if err != nil {
		return nil, translate(err, "search skills")
	}
	return collectSkills(rows)
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT category COLLATE "C" FROM skills WHERE active = TRUE ORDER BY 1
	`)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
