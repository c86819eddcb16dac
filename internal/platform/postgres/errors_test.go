package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/wordwise-srs/internal/platform/postgres"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "card_records",
		ColumnName:     "ease_factor",
		ConstraintName: "card_records_ease_factor_check",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "no rows", err: sql.ErrNoRows, expected: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), expected: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), expected: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), expected: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), expected: store.ErrInvalidEntity},
		{
			name:     "wrapped check violation",
			err:      fmt.Errorf("exec: %w", newPgError("23514")),
			expected: store.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.expected)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unmapped passes through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection reset")
		assert.Same(t, original, postgres.MapError(original))

		pgErr := newPgError("40001")
		assert.Equal(t, error(pgErr), postgres.MapError(pgErr))
	})
}

func TestMapErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Contains(t, postgres.MapError(newPgError("23503")).Error(), "unknown learner")
	assert.Contains(t, postgres.MapError(newPgError("23514")).Error(), "card_records_ease_factor_check")
	assert.Contains(t, postgres.MapError(newPgError("23502")).Error(), "ease_factor is required")
}
