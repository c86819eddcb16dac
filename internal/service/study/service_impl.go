package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/events"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/service/activity"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
	"github.com/phrazzld/wordwise-srs/internal/service/stats"
	"github.com/phrazzld/wordwise-srs/internal/store"
)

// Option customises a Service created by NewService.
type Option func(*serviceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithRandom sets the jitter source handed to the scheduler.
func WithRandom(rnd srs.RandomSource) Option {
	return func(s *serviceImpl) {
		s.random = rnd
	}
}

// WithDefaultLocation sets the zone used for learners without a time zone.
func WithDefaultLocation(loc *time.Location) Option {
	return func(s *serviceImpl) {
		if loc != nil {
			s.defaultLoc = loc
		}
	}
}

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db         *sql.DB
	profiles   store.ProfileStore
	lifecycle  *lifecycle.Manager
	tracker    *activity.Tracker
	aggregator *stats.Aggregator
	emitter    events.EventEmitter
	logger     *slog.Logger

	clock      func() time.Time
	random     srs.RandomSource
	defaultLoc *time.Location
}

// NewService creates a Service. If logger is nil, a default logger will be used.
func NewService(
	db *sql.DB,
	profiles store.ProfileStore,
	lifecycleManager *lifecycle.Manager,
	tracker *activity.Tracker,
	aggregator *stats.Aggregator,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if profiles == nil {
		panic("profiles cannot be nil")
	}
	if lifecycleManager == nil {
		panic("lifecycleManager cannot be nil")
	}
	if tracker == nil {
		panic("tracker cannot be nil")
	}
	if aggregator == nil {
		panic("aggregator cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		db:         db,
		profiles:   profiles,
		lifecycle:  lifecycleManager,
		tracker:    tracker,
		aggregator: aggregator,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "study_service")),
		clock:      time.Now,
		defaultLoc: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// changeSet lists what a mutation touched. The profile row is always saved.
type changeSet struct {
	cards    []*domain.CardRecord
	activity domain.Date
	events   []*events.Event
}

type mutation func(ctx context.Context, p *domain.LearnerProfile, now time.Time) (*changeSet, error)

// mutate runs fn against the locked profile of userID and persists its
// changes in one transaction. Events are emitted only after commit.
func (s *serviceImpl) mutate(ctx context.Context, op string, userID uuid.UUID, fn mutation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	ctx = logger.WithLogger(ctx, log)

	if userID == uuid.Nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrEmptyProfileUserID)
	}

	now := s.clock()
	var pending []*events.Event

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		profiles := s.profiles.WithTx(tx)

		p, err := s.lockProfile(ctx, profiles, userID, now)
		if err != nil {
			return err
		}

		changes, err := fn(ctx, p, now)
		if err != nil {
			return err
		}

		if err := profiles.SaveProfile(ctx, p); err != nil {
			return err
		}
		for _, card := range changes.cards {
			if err := profiles.SaveCard(ctx, userID, card); err != nil {
				return err
			}
		}
		if !changes.activity.IsZero() {
			day := p.ActivityOn(changes.activity)
			if day != nil {
				if err := profiles.SaveActivity(ctx, userID, changes.activity, day); err != nil {
					return err
				}
			}
		}

		pending = changes.events
		return nil
	})
	if err != nil {
		if IsExpected(err) {
			log.Debug("study action rejected",
				slog.String("operation", op),
				slog.String("user_id", userID.String()),
				slog.String("reason", err.Error()))
			return err
		}
		log.Error("study action failed",
			slog.String("operation", op),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return NewServiceError(op, "failed to apply change", err)
	}

	for _, event := range pending {
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("failed to emit event",
				slog.String("event_type", event.Type),
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// lockProfile loads the profile inside a transaction, creating the default
// profile for learners seen for the first time.
func (s *serviceImpl) lockProfile(
	ctx context.Context,
	profiles store.ProfileStore,
	userID uuid.UUID,
	now time.Time,
) (*domain.LearnerProfile, error) {
	p, err := profiles.Load(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, err
	}

	fresh, err := domain.NewLearnerProfile(userID, now)
	if err != nil {
		return nil, err
	}
	if err := profiles.EnsureProfile(ctx, fresh); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("created learner profile",
		slog.String("user_id", userID.String()))

	return profiles.Load(ctx, userID)
}

// read loads a profile without locking. Unknown learners get a default
// profile that is not saved.
func (s *serviceImpl) read(ctx context.Context, op string, userID uuid.UUID) (*domain.LearnerProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrEmptyProfileUserID)
	}

	p, err := s.profiles.Load(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return domain.NewLearnerProfile(userID, s.clock())
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load learner profile",
			slog.String("operation", op),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError(op, "failed to load profile", err)
	}
	return p, nil
}

func (s *serviceImpl) newEvent(eventType string, userID uuid.UUID, payload any, now time.Time) (*events.Event, error) {
	event, err := events.NewEvent(eventType, userID, payload, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return event, nil
}

// LearnWord implements Service.LearnWord.
func (s *serviceImpl) LearnWord(
	ctx context.Context,
	userID uuid.UUID,
	wordID domain.WordID,
) (*LearnResult, error) {
	var result LearnResult

	err := s.mutate(ctx, "learn_word", userID, func(ctx context.Context, p *domain.LearnerProfile, now time.Time) (*changeSet, error) {
		today, err := s.tracker.Today(p, now, s.defaultLoc)
		if err != nil {
			return nil, err
		}

		remaining, err := s.tracker.RemainingNewWords(p, today)
		if err != nil {
			return nil, err
		}
		if _, exists := p.Card(wordID); exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyStudied, wordID)
		}
		if remaining == 0 {
			return nil, ErrDailyLimitReached
		}

		card, err := s.lifecycle.MarkNewWordStudied(p, wordID, now)
		if err != nil {
			return nil, err
		}
		if err := s.tracker.UpdateStreak(p, today); err != nil {
			return nil, err
		}
		if err := s.tracker.RecordSession(p, today, activity.Session{NewWords: 1}); err != nil {
			return nil, err
		}

		event, err := s.newEvent(events.TypeWordLearned, userID, events.WordLearnedPayload{
			WordID:    wordID,
			NextDueAt: card.NextDueAt,
		}, now)
		if err != nil {
			return nil, err
		}

		result = LearnResult{Card: card.Clone(), RemainingToday: remaining - 1}
		return &changeSet{
			cards:    []*domain.CardRecord{card},
			activity: today,
			events:   []*events.Event{event},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ReviewWord implements Service.ReviewWord.
func (s *serviceImpl) ReviewWord(
	ctx context.Context,
	userID uuid.UUID,
	wordID domain.WordID,
	rating domain.Rating,
) (*lifecycle.ReviewResult, error) {
	var result lifecycle.ReviewResult

	err := s.mutate(ctx, "review_word", userID, func(ctx context.Context, p *domain.LearnerProfile, now time.Time) (*changeSet, error) {
		today, err := s.tracker.Today(p, now, s.defaultLoc)
		if err != nil {
			return nil, err
		}

		res, err := s.lifecycle.ReviewWord(p, wordID, rating, now, s.random)
		if err != nil {
			return nil, err
		}
		if err := s.tracker.UpdateStreak(p, today); err != nil {
			return nil, err
		}

		session := activity.Session{Reviews: 1}
		if rating.Successful() {
			session.Correct = 1
		}
		if err := s.tracker.RecordSession(p, today, session); err != nil {
			return nil, err
		}

		changes := &changeSet{
			cards:    []*domain.CardRecord{res.Card},
			activity: today,
		}

		if res.BecameLeech {
			event, err := s.newEvent(events.TypeLeechDetected, userID, events.LeechDetectedPayload{
				WordID:     wordID,
				LeechCount: res.Card.LeechCount,
			}, now)
			if err != nil {
				return nil, err
			}
			changes.events = append(changes.events, event)
		}
		if res.Promoted {
			event, err := s.newEvent(events.TypeCardMastered, userID, events.CardMasteredPayload{
				WordID:       wordID,
				IntervalDays: res.Card.IntervalDays,
			}, now)
			if err != nil {
				return nil, err
			}
			changes.events = append(changes.events, event)
		}

		result = res
		result.Card = res.Card.Clone()
		return changes, nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// PostponeWord implements Service.PostponeWord.
func (s *serviceImpl) PostponeWord(
	ctx context.Context,
	userID uuid.UUID,
	wordID domain.WordID,
	days int,
) (*domain.CardRecord, error) {
	var postponed *domain.CardRecord

	err := s.mutate(ctx, "postpone_word", userID, func(ctx context.Context, p *domain.LearnerProfile, now time.Time) (*changeSet, error) {
		card, err := s.lifecycle.PostponeWord(p, wordID, days, now)
		if err != nil {
			return nil, err
		}
		postponed = card.Clone()
		return &changeSet{cards: []*domain.CardRecord{card}}, nil
	})
	if err != nil {
		return nil, err
	}

	return postponed, nil
}

// SetPreferences implements Service.SetPreferences.
func (s *serviceImpl) SetPreferences(
	ctx context.Context,
	userID uuid.UUID,
	prefs Preferences,
) (*domain.LearnerProfile, error) {
	var persona domain.Persona
	if prefs.Persona != "" {
		parsed, err := domain.ParsePersona(prefs.Persona)
		if err != nil {
			return nil, err
		}
		persona = parsed
	}
	if prefs.TimeZone != "" {
		if _, err := domain.LoadLocation(prefs.TimeZone); err != nil {
			return nil, err
		}
	}

	var updated *domain.LearnerProfile
	err := s.mutate(ctx, "set_preferences", userID, func(ctx context.Context, p *domain.LearnerProfile, now time.Time) (*changeSet, error) {
		if persona.IsSet() {
			p.Persona = persona
		}
		if prefs.TimeZone != "" {
			p.TimeZone = prefs.TimeZone
		}
		p.UpdatedAt = now
		updated = p
		return &changeSet{}, nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Profile implements Service.Profile.
func (s *serviceImpl) Profile(ctx context.Context, userID uuid.UUID) (*domain.LearnerProfile, error) {
	return s.read(ctx, "get_profile", userID)
}

// DueReviews implements Service.DueReviews.
func (s *serviceImpl) DueReviews(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error) {
	p, err := s.read(ctx, "due_reviews", userID)
	if err != nil {
		return nil, err
	}
	due := s.lifecycle.GetDueReviews(p, s.clock())
	if due == nil {
		due = []domain.WordID{}
	}
	return due, nil
}

// StudiedWords implements Service.StudiedWords.
func (s *serviceImpl) StudiedWords(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error) {
	p, err := s.read(ctx, "studied_words", userID)
	if err != nil {
		return nil, err
	}

	set := s.lifecycle.GetStudiedWordIDs(p)
	ids := make([]domain.WordID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Leeches implements Service.Leeches.
func (s *serviceImpl) Leeches(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error) {
	p, err := s.read(ctx, "leeches", userID)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Leeches(p), nil
}

// Stats implements Service.Stats.
func (s *serviceImpl) Stats(ctx context.Context, userID uuid.UUID, totalWords int) (stats.Summary, error) {
	if totalWords < 0 {
		return stats.Summary{}, fmt.Errorf("%w: total words cannot be negative", domain.ErrValidation)
	}

	p, err := s.read(ctx, "stats", userID)
	if err != nil {
		return stats.Summary{}, err
	}
	return s.aggregator.Compute(p, totalWords, s.clock(), s.defaultLoc), nil
}
