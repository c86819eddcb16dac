package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// ProfileStore persists learner profiles and the card and activity rows
// they own.
type ProfileStore interface {
	// Load returns the full profile of userID, cards and activity included.
	// Returns ErrProfileNotFound when the learner has never been stored.
	//
	// On a store bound to a transaction with WithTx, implementations that
	// support row locks lock the profile row until the transaction ends so
	// concurrent events for one learner are applied one after the other.
	Load(ctx context.Context, userID uuid.UUID) (*domain.LearnerProfile, error)

	// EnsureProfile inserts p unless a profile for p.UserID already exists.
	// Existing rows are left untouched.
	EnsureProfile(ctx context.Context, p *domain.LearnerProfile) error

	// SaveProfile inserts or updates the profile row (persona, time zone,
	// streak and summary counters). Cards and activity are saved separately.
	SaveProfile(ctx context.Context, p *domain.LearnerProfile) error

	// SaveCard inserts or updates one card record of userID.
	SaveCard(ctx context.Context, userID uuid.UUID, card *domain.CardRecord) error

	// SaveActivity inserts or replaces the counters of userID for date.
	SaveActivity(ctx context.Context, userID uuid.UUID, date domain.Date, a *domain.DailyActivity) error

	// WithTx returns a store bound to tx.
	WithTx(tx *sql.Tx) ProfileStore
}

// DueLearner is a learner with at least one card due for review.
type DueLearner struct {
	UserID   uuid.UUID
	DueCount int
}

// ReminderStore lists learners that have reviews waiting.
type ReminderStore interface {
	// ListDueLearners returns every learner with cards due at or before now,
	// ordered by user ID.
	ListDueLearners(ctx context.Context, now time.Time) ([]DueLearner, error)
}
