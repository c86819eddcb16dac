// Package activity keeps the per-day study counters, the study streak and
// the persona-based cap on new words per day.
package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
)

var (
	// ErrNegativeDelta is returned when a session would decrement a counter.
	ErrNegativeDelta = errors.New("activity deltas cannot be negative")

	// ErrNilProfile is returned when an operation is handed no profile.
	ErrNilProfile = errors.New("learner profile cannot be nil")
)

// Limits maps each persona to its daily new-word cap.
type Limits map[domain.Persona]int

// DefaultLimits returns the stock persona caps.
func DefaultLimits() Limits {
	return Limits{
		domain.PersonaBeginner: 10,
		domain.PersonaCasual:   20,
		domain.PersonaSerious:  30,
	}
}

// Session is the set of counter increments produced by one study event.
type Session struct {
	NewWords int
	Reviews  int
	Correct  int
}

// Tracker updates daily activity and streaks on a LearnerProfile.
type Tracker struct {
	limits Limits
}

// NewTracker creates a Tracker. Personas missing from limits fall back to
// DefaultLimits.
func NewTracker(limits Limits) *Tracker {
	merged := DefaultLimits()
	for persona, limit := range limits {
		merged[persona] = limit
	}
	return &Tracker{limits: merged}
}

// RecordSession adds s to the counters of date, creating the day if needed.
func (t *Tracker) RecordSession(p *domain.LearnerProfile, date domain.Date, s Session) error {
	if p == nil {
		return ErrNilProfile
	}
	if s.NewWords < 0 || s.Reviews < 0 || s.Correct < 0 {
		return fmt.Errorf("%w: %+v", ErrNegativeDelta, s)
	}
	if _, err := domain.ParseDate(date.String()); err != nil {
		return err
	}

	if p.Activity == nil {
		p.Activity = make(map[domain.Date]*domain.DailyActivity)
	}
	day, ok := p.Activity[date]
	if !ok {
		day = &domain.DailyActivity{}
		p.Activity[date] = day
	}

	day.NewWordsStudied += s.NewWords
	day.ReviewsCompleted += s.Reviews
	day.CorrectReviews += s.Correct

	return nil
}

// UpdateStreak registers study on today. Studying again on the same day is
// a no-op, the day after the last study extends the streak and anything
// else restarts it at one.
func (t *Tracker) UpdateStreak(p *domain.LearnerProfile, today domain.Date) error {
	if p == nil {
		return ErrNilProfile
	}
	if _, err := domain.ParseDate(today.String()); err != nil {
		return err
	}

	switch p.LastStudyDate {
	case today:
		return nil
	case today.AddDays(-1):
		p.Streak++
	default:
		p.Streak = 1
	}

	if p.Streak > p.LongestStreak {
		p.LongestStreak = p.Streak
	}
	p.LastStudyDate = today

	return nil
}

// DailyNewWordLimit returns the cap for persona. An unset persona yields
// domain.ErrPersonaNotSet.
func (t *Tracker) DailyNewWordLimit(persona domain.Persona) (int, error) {
	if !persona.IsSet() {
		return 0, domain.ErrPersonaNotSet
	}
	limit, ok := t.limits[persona]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPersona, persona)
	}
	return limit, nil
}

// HasReachedDailyLimit reports whether the learner has used up today's new
// words. Learners without a persona may not study new words at all, which
// is reported as domain.ErrPersonaNotSet.
func (t *Tracker) HasReachedDailyLimit(p *domain.LearnerProfile, today domain.Date) (bool, error) {
	remaining, err := t.RemainingNewWords(p, today)
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

// RemainingNewWords returns how many new words the learner may still study
// today.
func (t *Tracker) RemainingNewWords(p *domain.LearnerProfile, today domain.Date) (int, error) {
	if p == nil {
		return 0, ErrNilProfile
	}
	limit, err := t.DailyNewWordLimit(p.Persona)
	if err != nil {
		return 0, err
	}

	studied := 0
	if day := p.ActivityOn(today); day != nil {
		studied = day.NewWordsStudied
	}

	if studied >= limit {
		return 0, nil
	}
	return limit - studied, nil
}

// Today returns the learner's current calendar day.
func (t *Tracker) Today(p *domain.LearnerProfile, now time.Time, fallback *time.Location) (domain.Date, error) {
	loc, err := p.Location(fallback)
	if err != nil {
		return "", err
	}
	return domain.DateOf(now, loc), nil
}
