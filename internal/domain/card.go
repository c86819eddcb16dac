package domain

import (
	"errors"
	"time"
)

// Scheduling constants shared by the scheduler and the lifecycle manager.
const (
	// InitialEaseFactor is the ease a card starts with.
	InitialEaseFactor = 2.5

	// MinEaseFactor is the floor the ease factor is clamped to.
	MinEaseFactor = 1.3

	// LeechThreshold is the number of Again ratings after which a card is a leech.
	LeechThreshold = 8

	// MasteryIntervalDays is the interval at which a card graduates to Review.
	MasteryIntervalDays = 21
)

// Validation errors for CardRecord
var (
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
	ErrInvalidInterval   = errors.New("interval must be at least 1 day")
	ErrInvalidDueDate    = errors.New("next due date cannot be before last review")
	ErrNegativeCounter   = errors.New("counters cannot be negative")
	ErrInvalidState      = errors.New("invalid card state")
)

// CardRecord is the persisted learning state of one word for one learner.
// A record only exists once the word has been studied, so State is never New.
type CardRecord struct {
	WordID       WordID    `json:"word_id"`
	State        CardState `json:"state"`
	Repetitions  int       `json:"repetitions"`   // Consecutive successful reviews since the last lapse
	EaseFactor   float64   `json:"ease_factor"`   // Never below MinEaseFactor
	IntervalDays int       `json:"interval_days"` // Interval computed at the last review; postponing leaves it unchanged
	LastReviewAt time.Time `json:"last_review_at"`
	NextDueAt    time.Time `json:"next_due_at"`
	LeechCount   int       `json:"leech_count"` // Number of Again ratings
	IsLeech      bool      `json:"is_leech"`    // Sticky once LeechCount reaches LeechThreshold
	ReviewCount  int       `json:"review_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCardRecord creates the record for a word studied for the first time.
// The card enters Learning and is due one day later.
func NewCardRecord(wordID WordID, now time.Time) (*CardRecord, error) {
	card := &CardRecord{
		WordID:       wordID,
		State:        CardStateLearning,
		Repetitions:  0,
		EaseFactor:   InitialEaseFactor,
		IntervalDays: 1,
		LastReviewAt: now,
		NextDueAt:    now.AddDate(0, 0, 1),
		CreatedAt:    now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the CardRecord invariants.
func (c *CardRecord) Validate() error {
	if c.WordID == "" {
		return ErrEmptyWordID
	}

	if c.State != CardStateLearning && c.State != CardStateReview {
		return ErrInvalidState
	}

	if c.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if c.IntervalDays < 1 {
		return ErrInvalidInterval
	}

	if c.NextDueAt.Before(c.LastReviewAt) {
		return ErrInvalidDueDate
	}

	if c.Repetitions < 0 || c.LeechCount < 0 || c.ReviewCount < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// IsDue reports whether the card can be reviewed at now.
func (c *CardRecord) IsDue(now time.Time) bool {
	return !c.NextDueAt.After(now)
}

// IsMastered reports whether the card is in Review with a mastery-length interval.
func (c *CardRecord) IsMastered() bool {
	return c.State == CardStateReview && c.IntervalDays >= MasteryIntervalDays
}

// Clone returns a copy of the record.
func (c *CardRecord) Clone() *CardRecord {
	clone := *c
	return &clone
}
