package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/store"
)

// Timestamps are stored as RFC 3339 text in UTC so they sort lexically.
const timeLayout = time.RFC3339Nano

type profileRow struct {
	Persona           sql.NullString `db:"persona"`
	TimeZone          string         `db:"time_zone"`
	LastStudyDate     string         `db:"last_study_date"`
	Streak            int            `db:"streak"`
	LongestStreak     int            `db:"longest_streak"`
	TotalWordsStudied int            `db:"total_words_studied"`
	WordsInReview     int            `db:"words_in_review"`
	WordsMastered     int            `db:"words_mastered"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
}

type cardRow struct {
	WordID       string  `db:"word_id"`
	State        string  `db:"state"`
	Repetitions  int     `db:"repetitions"`
	EaseFactor   float64 `db:"ease_factor"`
	IntervalDays int     `db:"interval_days"`
	LastReviewAt string  `db:"last_review_at"`
	NextDueAt    string  `db:"next_due_at"`
	LeechCount   int     `db:"leech_count"`
	IsLeech      bool    `db:"is_leech"`
	ReviewCount  int     `db:"review_count"`
	CreatedAt    string  `db:"created_at"`
}

type activityRow struct {
	ActivityDate     string `db:"activity_date"`
	NewWordsStudied  int    `db:"new_words_studied"`
	ReviewsCompleted int    `db:"reviews_completed"`
	CorrectReviews   int    `db:"correct_reviews"`
}

type dueRow struct {
	UserID   string `db:"user_id"`
	DueCount int    `db:"due_count"`
}

// ProfileStore implements store.ProfileStore and store.ReminderStore on SQLite.
type ProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
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

// WithTx returns a store bound to tx. SQLite serializes writers, so no row
// lock is taken.
func (s *ProfileStore) WithTx(tx *sql.Tx) store.ProfileStore {
	return &ProfileStore{db: tx, logger: s.logger}
}

// selectAll runs query and scans every row into dest, a pointer to a slice
// of structs tagged with column names.
func (s *ProfileStore) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return sqlx.StructScan(rows, dest)
}

// Load implements store.ProfileStore.Load.
func (s *ProfileStore) Load(ctx context.Context, userID uuid.UUID) (*domain.LearnerProfile, error) {
	log := logger.FromContext(ctx)
	id := userID.String()

	var profiles []profileRow
	err := s.selectAll(ctx, &profiles, `
		SELECT persona, time_zone, last_study_date, streak, longest_streak,
		       total_words_studied, words_in_review, words_mastered,
		       created_at, updated_at
		FROM learner_profiles
		WHERE user_id = ?`, id)
	if err != nil {
		log.Error("failed to load learner profile",
			slog.String("user_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("profile", "load", "failed to select profile", err)
	}
	if len(profiles) == 0 {
		return nil, store.ErrProfileNotFound
	}

	p, err := profiles[0].toDomain(userID)
	if err != nil {
		return nil, store.NewStoreError("profile", "load", "stored profile is invalid", err)
	}

	var cards []cardRow
	err = s.selectAll(ctx, &cards, `
		SELECT word_id, state, repetitions, ease_factor, interval_days,
		       last_review_at, next_due_at, leech_count, is_leech, review_count,
		       created_at
		FROM card_records
		WHERE user_id = ?`, id)
	if err != nil {
		return nil, store.NewStoreError("card", "load", "failed to select cards", err)
	}
	for _, row := range cards {
		card, err := row.toDomain()
		if err != nil {
			return nil, store.NewStoreError("card", "load", "stored card is invalid", err)
		}
		p.Cards[card.WordID] = card
	}

	var activity []activityRow
	err = s.selectAll(ctx, &activity, `
		SELECT activity_date, new_words_studied, reviews_completed, correct_reviews
		FROM daily_activity
		WHERE user_id = ?`, id)
	if err != nil {
		return nil, store.NewStoreError("activity", "load", "failed to select activity", err)
	}
	for _, row := range activity {
		p.Activity[domain.Date(row.ActivityDate)] = &domain.DailyActivity{
			NewWordsStudied:  row.NewWordsStudied,
			ReviewsCompleted: row.ReviewsCompleted,
			CorrectReviews:   row.CorrectReviews,
		}
	}

	log.Debug("loaded learner profile",
		slog.String("user_id", id),
		slog.Int("cards", len(p.Cards)),
		slog.Int("activity_days", len(p.Activity)))

	return p, nil
}

func (r profileRow) toDomain(userID uuid.UUID) (*domain.LearnerProfile, error) {
	p := &domain.LearnerProfile{
		UserID:            userID,
		Cards:             make(map[domain.WordID]*domain.CardRecord),
		Activity:          make(map[domain.Date]*domain.DailyActivity),
		TimeZone:          r.TimeZone,
		LastStudyDate:     domain.Date(r.LastStudyDate),
		Streak:            r.Streak,
		LongestStreak:     r.LongestStreak,
		TotalWordsStudied: r.TotalWordsStudied,
		WordsInReview:     r.WordsInReview,
		WordsMastered:     r.WordsMastered,
	}

	var err error
	if r.Persona.Valid {
		if p.Persona, err = domain.ParsePersona(r.Persona.String); err != nil {
			return nil, err
		}
	}
	if p.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r cardRow) toDomain() (*domain.CardRecord, error) {
	state, err := domain.ParseCardState(r.State)
	if err != nil {
		return nil, err
	}

	card := &domain.CardRecord{
		WordID:       domain.WordID(r.WordID),
		State:        state,
		Repetitions:  r.Repetitions,
		EaseFactor:   r.EaseFactor,
		IntervalDays: r.IntervalDays,
		LeechCount:   r.LeechCount,
		IsLeech:      r.IsLeech,
		ReviewCount:  r.ReviewCount,
	}
	if card.LastReviewAt, err = parseTime(r.LastReviewAt); err != nil {
		return nil, err
	}
	if card.NextDueAt, err = parseTime(r.NextDueAt); err != nil {
		return nil, err
	}
	if card.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	return card, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", raw, err)
	}
	return t, nil
}

// EnsureProfile implements store.ProfileStore.EnsureProfile.
func (s *ProfileStore) EnsureProfile(ctx context.Context, p *domain.LearnerProfile) error {
	if p == nil || p.UserID == uuid.Nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyProfileUserID)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learner_profiles (user_id, time_zone, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID.String(), p.TimeZone, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learner_profiles (
			user_id, persona, time_zone, last_study_date, streak, longest_streak,
			total_words_studied, words_in_review, words_mastered, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			persona = excluded.persona,
			time_zone = excluded.time_zone,
			last_study_date = excluded.last_study_date,
			streak = excluded.streak,
			longest_streak = excluded.longest_streak,
			total_words_studied = excluded.total_words_studied,
			words_in_review = excluded.words_in_review,
			words_mastered = excluded.words_mastered,
			updated_at = excluded.updated_at`,
		p.UserID.String(),
		sql.NullString{String: string(p.Persona), Valid: p.Persona.IsSet()},
		p.TimeZone,
		string(p.LastStudyDate),
		p.Streak,
		p.LongestStreak,
		p.TotalWordsStudied,
		p.WordsInReview,
		p.WordsMastered,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_records (
			user_id, word_id, state, repetitions, ease_factor, interval_days,
			last_review_at, next_due_at, leech_count, is_leech, review_count,
			created_at, next_due_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			state = excluded.state,
			repetitions = excluded.repetitions,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			last_review_at = excluded.last_review_at,
			next_due_at = excluded.next_due_at,
			leech_count = excluded.leech_count,
			is_leech = excluded.is_leech,
			review_count = excluded.review_count,
			next_due_ns = excluded.next_due_ns`,
		userID.String(),
		string(card.WordID),
		string(card.State),
		card.Repetitions,
		card.EaseFactor,
		card.IntervalDays,
		formatTime(card.LastReviewAt),
		formatTime(card.NextDueAt),
		card.LeechCount,
		card.IsLeech,
		card.ReviewCount,
		formatTime(card.CreatedAt),
		card.NextDueAt.UnixNano(),
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
	if _, err := domain.ParseDate(string(date)); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_activity (
			user_id, activity_date, new_words_studied, reviews_completed, correct_reviews
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			new_words_studied = excluded.new_words_studied,
			reviews_completed = excluded.reviews_completed,
			correct_reviews = excluded.correct_reviews`,
		userID.String(), string(date), a.NewWordsStudied, a.ReviewsCompleted, a.CorrectReviews)
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
	var rows []dueRow
	err := s.selectAll(ctx, &rows, `
		SELECT user_id, COUNT(*) AS due_count
		FROM card_records
		WHERE next_due_ns <= ?
		GROUP BY user_id
		ORDER BY user_id`, now.UnixNano())
	if err != nil {
		return nil, store.NewStoreError("card", "list_due", "failed to select due learners", err)
	}

	learners := make([]store.DueLearner, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.UserID)
		if err != nil {
			return nil, store.NewStoreError("card", "list_due", "stored user ID is invalid", err)
		}
		learners = append(learners, store.DueLearner{UserID: id, DueCount: row.DueCount})
	}
	return learners, nil
}
