// Package storetest holds the behavior every store implementation must share.
// Driver packages call RunProfileStoreTests from their own tests against a
// freshly migrated database.
package storetest

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store is the union of the store interfaces a driver provides.
type Store interface {
	store.ProfileStore
	store.ReminderStore
}

// Factory returns a store over an empty migrated database, plus the database
// itself for transaction tests.
type Factory func(t *testing.T) (Store, *sql.DB)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newProfile(t *testing.T) *domain.LearnerProfile {
	t.Helper()
	p, err := domain.NewLearnerProfile(uuid.New(), baseTime)
	require.NoError(t, err)
	return p
}

func newCard(t *testing.T, id domain.WordID, due time.Time) *domain.CardRecord {
	t.Helper()
	card, err := domain.NewCardRecord(id, baseTime)
	require.NoError(t, err)
	card.NextDueAt = due
	return card
}

// RunProfileStoreTests exercises a store created by newStore.
func RunProfileStoreTests(t *testing.T, newStore Factory) {
	t.Run("load missing profile", func(t *testing.T) {
		s, _ := newStore(t)
		_, err := s.Load(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrProfileNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)

		p := newProfile(t)
		p.Persona = domain.PersonaCasual
		p.TimeZone = "Europe/Berlin"
		p.LastStudyDate = "2026-03-14"
		p.Streak = 3
		p.LongestStreak = 7
		p.TotalWordsStudied = 2
		p.WordsInReview = 1
		p.WordsMastered = 1
		require.NoError(t, s.SaveProfile(ctx, p))

		learning := newCard(t, "w-learning", baseTime.AddDate(0, 0, 1))
		learning.LeechCount = 2
		review := newCard(t, "w-review", baseTime.AddDate(0, 0, 25))
		review.State = domain.CardStateReview
		review.Repetitions = 4
		review.EaseFactor = 2.36
		review.IntervalDays = 25
		review.ReviewCount = 5
		review.IsLeech = true
		review.LeechCount = 8
		require.NoError(t, s.SaveCard(ctx, p.UserID, learning))
		require.NoError(t, s.SaveCard(ctx, p.UserID, review))

		activity := &domain.DailyActivity{NewWordsStudied: 2, ReviewsCompleted: 5, CorrectReviews: 4}
		require.NoError(t, s.SaveActivity(ctx, p.UserID, "2026-03-14", activity))

		loaded, err := s.Load(ctx, p.UserID)
		require.NoError(t, err)

		assert.Equal(t, p.UserID, loaded.UserID)
		assert.Equal(t, domain.PersonaCasual, loaded.Persona)
		assert.Equal(t, "Europe/Berlin", loaded.TimeZone)
		assert.Equal(t, domain.Date("2026-03-14"), loaded.LastStudyDate)
		assert.Equal(t, 3, loaded.Streak)
		assert.Equal(t, 7, loaded.LongestStreak)
		assert.Equal(t, 2, loaded.TotalWordsStudied)
		assert.Equal(t, 1, loaded.WordsInReview)
		assert.Equal(t, 1, loaded.WordsMastered)
		assert.True(t, loaded.CreatedAt.Equal(baseTime))

		require.Len(t, loaded.Cards, 2)
		got := loaded.Cards["w-review"]
		require.NotNil(t, got)
		assert.Equal(t, domain.CardStateReview, got.State)
		assert.Equal(t, 4, got.Repetitions)
		assert.InDelta(t, 2.36, got.EaseFactor, 1e-9)
		assert.Equal(t, 25, got.IntervalDays)
		assert.Equal(t, 5, got.ReviewCount)
		assert.Equal(t, 8, got.LeechCount)
		assert.True(t, got.IsLeech)
		assert.True(t, got.NextDueAt.Equal(review.NextDueAt))
		assert.True(t, got.LastReviewAt.Equal(review.LastReviewAt))
		assert.Equal(t, 2, loaded.Cards["w-learning"].LeechCount)
		assert.NoError(t, loaded.Validate())

		require.Len(t, loaded.Activity, 1)
		assert.Equal(t, activity, loaded.ActivityOn("2026-03-14"))
	})

	t.Run("unset persona and date stay unset", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)

		p := newProfile(t)
		require.NoError(t, s.SaveProfile(ctx, p))

		loaded, err := s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.False(t, loaded.Persona.IsSet())
		assert.True(t, loaded.LastStudyDate.IsZero())
		assert.Empty(t, loaded.Cards)
		assert.Empty(t, loaded.Activity)
	})

	t.Run("ensure profile keeps existing rows", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)

		p := newProfile(t)
		require.NoError(t, s.EnsureProfile(ctx, p))
		loaded, err := s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.False(t, loaded.Persona.IsSet())

		p.Persona = domain.PersonaBeginner
		p.Streak = 2
		require.NoError(t, s.SaveProfile(ctx, p))

		fresh, err := domain.NewLearnerProfile(p.UserID, baseTime.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, s.EnsureProfile(ctx, fresh))

		loaded, err = s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, domain.PersonaBeginner, loaded.Persona)
		assert.Equal(t, 2, loaded.Streak)

		assert.ErrorIs(t, s.EnsureProfile(ctx, nil), store.ErrInvalidEntity)
	})

	t.Run("saves are upserts", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)

		p := newProfile(t)
		require.NoError(t, s.SaveProfile(ctx, p))
		card := newCard(t, "w-1", baseTime.AddDate(0, 0, 1))
		require.NoError(t, s.SaveCard(ctx, p.UserID, card))
		require.NoError(t, s.SaveActivity(ctx, p.UserID, "2026-03-14", &domain.DailyActivity{NewWordsStudied: 1}))

		p.Persona = domain.PersonaSerious
		p.Streak = 1
		require.NoError(t, s.SaveProfile(ctx, p))
		card.Repetitions = 1
		card.IntervalDays = 6
		card.NextDueAt = baseTime.AddDate(0, 0, 6)
		require.NoError(t, s.SaveCard(ctx, p.UserID, card))
		require.NoError(t, s.SaveActivity(ctx, p.UserID, "2026-03-14",
			&domain.DailyActivity{NewWordsStudied: 1, ReviewsCompleted: 1, CorrectReviews: 1}))

		loaded, err := s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, domain.PersonaSerious, loaded.Persona)
		assert.Equal(t, 1, loaded.Streak)
		require.Len(t, loaded.Cards, 1)
		assert.Equal(t, 6, loaded.Cards["w-1"].IntervalDays)
		assert.Equal(t, 1, loaded.ActivityOn("2026-03-14").ReviewsCompleted)
	})

	t.Run("rejects invalid entities", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)

		p := newProfile(t)
		require.NoError(t, s.SaveProfile(ctx, p))

		bad := newCard(t, "w-1", baseTime.AddDate(0, 0, 1))
		bad.EaseFactor = 1.0
		assert.ErrorIs(t, s.SaveCard(ctx, p.UserID, bad), store.ErrInvalidEntity)
		assert.ErrorIs(t, s.SaveCard(ctx, p.UserID, nil), store.ErrInvalidEntity)
		assert.ErrorIs(t, s.SaveActivity(ctx, p.UserID, "", &domain.DailyActivity{}), store.ErrInvalidEntity)
		assert.ErrorIs(t, s.SaveProfile(ctx, &domain.LearnerProfile{}), store.ErrInvalidEntity)

		orphan := newCard(t, "w-2", baseTime.AddDate(0, 0, 1))
		assert.ErrorIs(t, s.SaveCard(ctx, uuid.New(), orphan), store.ErrInvalidEntity,
			"cards require an existing profile")
	})

	t.Run("transactions", func(t *testing.T) {
		ctx := context.Background()
		s, db := newStore(t)

		p := newProfile(t)
		require.NoError(t, s.SaveProfile(ctx, p))

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			txStore := s.WithTx(tx)
			loaded, err := txStore.Load(ctx, p.UserID)
			if err != nil {
				return err
			}
			loaded.Streak = 5
			if err := txStore.SaveProfile(ctx, loaded); err != nil {
				return err
			}
			return txStore.SaveCard(ctx, p.UserID, newCard(t, "w-tx", baseTime.AddDate(0, 0, 1)))
		})
		require.NoError(t, err)

		loaded, err := s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, 5, loaded.Streak)
		assert.Contains(t, loaded.Cards, domain.WordID("w-tx"))

		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			txStore := s.WithTx(tx)
			if err := txStore.SaveCard(ctx, p.UserID, newCard(t, "w-rolled-back", baseTime)); err != nil {
				return err
			}
			return store.ErrInvalidEntity
		})
		require.ErrorIs(t, err, store.ErrInvalidEntity)

		loaded, err = s.Load(ctx, p.UserID)
		require.NoError(t, err)
		assert.NotContains(t, loaded.Cards, domain.WordID("w-rolled-back"))
	})

	t.Run("list due learners", func(t *testing.T) {
		ctx := context.Background()
		s, _ := newStore(t)
		now := baseTime.AddDate(0, 0, 3)

		busy := newProfile(t)
		idle := newProfile(t)
		single := newProfile(t)
		for _, p := range []*domain.LearnerProfile{busy, idle, single} {
			require.NoError(t, s.SaveProfile(ctx, p))
		}

		require.NoError(t, s.SaveCard(ctx, busy.UserID, newCard(t, "w-1", baseTime.AddDate(0, 0, 1))))
		require.NoError(t, s.SaveCard(ctx, busy.UserID, newCard(t, "w-2", now)))
		require.NoError(t, s.SaveCard(ctx, busy.UserID, newCard(t, "w-3", now.Add(time.Minute))))
		require.NoError(t, s.SaveCard(ctx, idle.UserID, newCard(t, "w-1", now.AddDate(0, 0, 1))))
		require.NoError(t, s.SaveCard(ctx, single.UserID, newCard(t, "w-9", baseTime.AddDate(0, 0, 2))))

		learners, err := s.ListDueLearners(ctx, now)
		require.NoError(t, err)

		expected := []store.DueLearner{
			{UserID: busy.UserID, DueCount: 2},
			{UserID: single.UserID, DueCount: 1},
		}
		sort.Slice(expected, func(i, j int) bool {
			return expected[i].UserID.String() < expected[j].UserID.String()
		})
		assert.Equal(t, expected, learners)

		none, err := s.ListDueLearners(ctx, baseTime)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
