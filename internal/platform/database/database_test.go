package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/config"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"postgres://app@db:5432/wordwise", "postgres://app@db:5432/wordwise"},
		{"file:srs.db", "file:srs.db"},
		{":memory:", "invalid-url"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskURL(tt.input))
		})
	}

	masked := MaskURL("postgres://app:hunter2@db:5432/wordwise")
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "@db:5432/wordwise")
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "sqlite", URL: ":memory:", MaxOpenConns: 1}

	db, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(ctx, db, cfg.Driver, nil))

	s, err := NewStore(db, cfg.Driver, nil)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	p, err := domain.NewLearnerProfile(uuid.New(), now)
	require.NoError(t, err)

	require.NoError(t, s.EnsureProfile(ctx, p))
	loaded, err := s.Load(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, p.UserID, loaded.UserID)

	_, err = s.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrProfileNotFound)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "x"}, nil)
	assert.Error(t, err)

	_, err = NewStore(nil, "mysql", nil)
	assert.Error(t, err)
}
