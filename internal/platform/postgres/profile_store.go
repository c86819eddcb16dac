package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/store"
)

// ProfileStore implements store.ProfileStore and store.ReminderStore
// on PostgreSQL.
type ProfileStore struct {
	db        store.DBTX
	logger    *slog.Logger
	forUpdate bool
}

// NewProfileStore creates a ProfileStore backed by db.
// If logger is nil, a default logger will be used.
func NewProfileStore(db store.DBTX, logger *slog.Logger) *ProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

var (
	_ store.ProfileStore  = (*ProfileStore)(nil)
	_ store.ReminderStore = (*ProfileStore)(nil)
)

// WithTx returns a store bound to tx. Load on the returned store locks the
// profile row until tx ends.
func (s *ProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &ProfileStore{
		db:        tx,
		logger:    s.logger,
		forUpdate: true,
	}
}

const selectProfileQuery = `
	SELECT persona, time_zone, last_study_date, streak, longest_streak,
	       total_words_studied, words_in_review, words_mastered,
	       created_at, updated_at
	FROM learner_profiles
	WHERE user_id = $1`

const selectCardsQuery = `
	SELECT word_id, state, repetitions, ease_factor, interval_days,
	       last_review_at, next_due_at, leech_count, is_leech, review_count,
	       created_at
	FROM card_records
	WHERE user_id = $1`

const selectActivityQuery = `
	SELECT activity_date, new_words_studied, reviews_completed, correct_reviews
	FROM daily_activity
	WHERE user_id = $1`

// Load implements store.ProfileStore.Load.
func (s *ProfileStore) Load(ctx context.Context, userID uuid.UUID) (*domain.LearnerProfile, error) {
	log := logger.FromContext(ctx)

	query := selectProfileQuery
	if s.forUpdate {
		query += " FOR UPDATE"
	}

	p := &domain.LearnerProfile{
		UserID:   userID,
		Cards:    make(map[domain.WordID]*domain.CardRecord),
		Activity: make(map[domain.Date]*domain.DailyActivity),
	}

	var (
		persona   sql.NullString
		lastStudy sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&persona,
		&p.TimeZone,
		&lastStudy,
		&p.Streak,
		&p.LongestStreak,
		&p.TotalWordsStudied,
		&p.WordsInReview,
		&p.WordsMastered,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProfileNotFound
	}
	if err != nil {
		log.Error("failed to load learner profile",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("profile", "load", "failed to select profile", MapError(err))
	}

	if persona.Valid {
		if p.Persona, err = domain.ParsePersona(persona.String); err != nil {
			return nil, store.NewStoreError("profile", "load", "stored persona is invalid", err)
		}
	}
	if lastStudy.Valid {
		p.LastStudyDate = domain.DateOf(lastStudy.Time, time.UTC)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	if err := s.loadCards(ctx, p); err != nil {
		return nil, err
	}
	if err := s.loadActivity(ctx, p); err != nil {
		return nil, err
	}

	log.Debug("loaded learner profile",
		slog.String("user_id", userID.String()),
		slog.Int("cards", len(p.Cards)),
		slog.Int("activity_days", len(p.Activity)))

	return p, nil
}

func (s *ProfileStore) loadCards(ctx context.Context, p *domain.LearnerProfile) error {
	rows, err := s.db.QueryContext(ctx, selectCardsQuery, p.UserID)
	if err != nil {
		return store.NewStoreError("card", "load", "failed to select cards", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			card  domain.CardRecord
			state string
		)
		if err := rows.Scan(
			&card.WordID,
			&state,
			&card.Repetitions,
			&card.EaseFactor,
			&card.IntervalDays,
			&card.LastReviewAt,
			&card.NextDueAt,
			&card.LeechCount,
			&card.IsLeech,
			&card.ReviewCount,
			&card.CreatedAt,
		); err != nil {
			return store.NewStoreError("card", "load", "failed to scan card", err)
		}

		if card.State, err = domain.ParseCardState(state); err != nil {
			return store.NewStoreError("card", "load", "stored state is invalid", err)
		}
		card.LastReviewAt = card.LastReviewAt.UTC()
		card.NextDueAt = card.NextDueAt.UTC()
		card.CreatedAt = card.CreatedAt.UTC()

		p.Cards[card.WordID] = &card
	}

	if err := rows.Err(); err != nil {
		return store.NewStoreError("card", "load", "failed to iterate cards", MapError(err))
	}
	return nil
}

func (s *ProfileStore) loadActivity(ctx context.Context, p *domain.LearnerProfile) error {
	rows, err := s.db.QueryContext(ctx, selectActivityQuery, p.UserID)
	if err != nil {
		return store.NewStoreError("activity", "load", "failed to select activity", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			day time.Time
			a   domain.DailyActivity
		)
		if err := rows.Scan(&day, &a.NewWordsStudied, &a.ReviewsCompleted, &a.CorrectReviews); err != nil {
			return store.NewStoreError("activity", "load", "failed to scan activity", err)
		}
		p.Activity[domain.DateOf(day, time.UTC)] = &a
	}

	if err := rows.Err(); err != nil {
		return store.NewStoreError("activity", "load", "failed to iterate activity", MapError(err))
	}
	return nil
}

// EnsureProfile implements store.ProfileStore.EnsureProfile.
func (s *ProfileStore) EnsureProfile(ctx context.Context, p *domain.LearnerProfile) error {
	if p == nil || p.UserID == uuid.Nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyProfileUserID)
	}

	query := `
		INSERT INTO learner_profiles (user_id, time_zone, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, p.UserID, p.TimeZone, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return store.NewStoreError("profile", "ensure", "failed to insert profile", MapError(err))
	}
	return nil
}

// SaveProfile implements store.ProfileStore.SaveProfile.
func (s *ProfileStore) SaveProfile(ctx context.Context, p *domain.LearnerProfile) error {
	if p == nil || p.UserID == uuid.Nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyProfileUserID)
	}

	query := `
		INSERT INTO learner_profiles (
			user_id, persona, time_zone, last_study_date, streak, longest_streak,
			total_words_studied, words_in_review, words_mastered, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			persona = EXCLUDED.persona,
			time_zone = EXCLUDED.time_zone,
			last_study_date = EXCLUDED.last_study_date,
			streak = EXCLUDED.streak,
			longest_streak = EXCLUDED.longest_streak,
			total_words_studied = EXCLUDED.total_words_studied,
			words_in_review = EXCLUDED.words_in_review,
			words_mastered = EXCLUDED.words_mastered,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		p.UserID,
		sql.NullString{String: string(p.Persona), Valid: p.Persona.IsSet()},
		p.TimeZone,
		sql.NullTime{Time: p.LastStudyDate.Time(), Valid: !p.LastStudyDate.IsZero()},
		p.Streak,
		p.LongestStreak,
		p.TotalWordsStudied,
		p.WordsInReview,
		p.WordsMastered,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to save learner profile",
			slog.String("user_id", p.UserID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("profile", "save", "failed to upsert profile", MapError(err))
	}
	return nil
}

// SaveCard implements store.ProfileStore.SaveCard.
func (s *ProfileStore) SaveCard(ctx context.Context, userID uuid.UUID, card *domain.CardRecord) error {
	if card == nil {
		return fmt.Errorf("%w: nil card", store.ErrInvalidEntity)
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_records (
			user_id, word_id, state, repetitions, ease_factor, interval_days,
			last_review_at, next_due_at, leech_count, is_leech, review_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			state = EXCLUDED.state,
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			last_review_at = EXCLUDED.last_review_at,
			next_due_at = EXCLUDED.next_due_at,
			leech_count = EXCLUDED.leech_count,
			is_leech = EXCLUDED.is_leech,
			review_count = EXCLUDED.review_count`

	_, err := s.db.ExecContext(ctx, query,
		userID,
		string(card.WordID),
		string(card.State),
		card.Repetitions,
		card.EaseFactor,
		card.IntervalDays,
		card.LastReviewAt.UTC(),
		card.NextDueAt.UTC(),
		card.LeechCount,
		card.IsLeech,
		card.ReviewCount,
		card.CreatedAt.UTC(),
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to save card record",
			slog.String("user_id", userID.String()),
			slog.String("word_id", string(card.WordID)),
			slog.String("error", err.Error()))
		return store.NewStoreError("card", "save", "failed to upsert card", MapError(err))
	}
	return nil
}

// SaveActivity implements store.ProfileStore.SaveActivity.
func (s *ProfileStore) SaveActivity(
	ctx context.Context,
	userID uuid.UUID,
	date domain.Date,
	a *domain.DailyActivity,
) error {
	if a == nil {
		return fmt.Errorf("%w: nil activity", store.ErrInvalidEntity)
	}
	day := date.Time()
	if day.IsZero() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidDate)
	}

	query := `
		INSERT INTO daily_activity (
			user_id, activity_date, new_words_studied, reviews_completed, correct_reviews
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			new_words_studied = EXCLUDED.new_words_studied,
			reviews_completed = EXCLUDED.reviews_completed,
			correct_reviews = EXCLUDED.correct_reviews`

	_, err := s.db.ExecContext(ctx, query,
		userID, day, a.NewWordsStudied, a.ReviewsCompleted, a.CorrectReviews)
	if err != nil {
		logger.FromContext(ctx).Error("failed to save daily activity",
			slog.String("user_id", userID.String()),
			slog.String("date", date.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("activity", "save", "failed to upsert activity", MapError(err))
	}
	return nil
}

// ListDueLearners implements store.ReminderStore.ListDueLearners.
func (s *ProfileStore) ListDueLearners(ctx context.Context, now time.Time) ([]store.DueLearner, error) {
	query := `
		SELECT user_id, COUNT(*)
		FROM card_records
		WHERE next_due_at <= $1
		GROUP BY user_id
		ORDER BY user_id`

	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, store.NewStoreError("card", "list_due", "failed to select due learners", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var learners []store.DueLearner
	for rows.Next() {
		var l store.DueLearner
		if err := rows.Scan(&l.UserID, &l.DueCount); err != nil {
			return nil, store.NewStoreError("card", "list_due", "failed to scan due learner", err)
		}
		learners = append(learners, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", "list_due", "failed to iterate due learners", MapError(err))
	}

	return learners, nil
}
