package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, store.ErrMissingRef},
		{"string too long", &pgconn.PgError{Code: "22001"}, store.ErrValueTooLong},
		{"wrapped string too long", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "22001"}), store.ErrValueTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, translate(tt.err, "test op"), tt.want)
		})
	}

	require.NoError(t, translate(nil, "test op"))

	other := translate(&pgconn.PgError{Code: "40001"}, "update exchange")
	require.Error(t, other)
	require.Contains(t, other.Error(), "failed to update exchange")
	for _, sentinel := range []error{store.ErrNotFound, store.ErrDuplicate, store.ErrMissingRef, store.ErrValueTooLong} {
		require.False(t, errors.Is(other, sentinel))
	}
}
