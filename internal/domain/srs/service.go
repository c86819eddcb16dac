// Package srs implements the SM-2 spaced-repetition scheduler. It is pure
// computation: the only non-determinism is the RandomSource passed to every
// call.
package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// Common errors
var (
	ErrNilCard     = errors.New("card record cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// State is the part of a card the scheduler reads.
type State struct {
	EaseFactor   float64
	Repetitions  int
	IntervalDays int
}

// StateOf extracts the scheduling state of a card.
func StateOf(card *domain.CardRecord) State {
	return State{
		EaseFactor:   card.EaseFactor,
		Repetitions:  card.Repetitions,
		IntervalDays: card.IntervalDays,
	}
}

// Schedule is the outcome of one review.
type Schedule struct {
	EaseFactor      float64
	Repetitions     int
	RawIntervalDays int // Before jitter
	IntervalDays    int
	NextDueAt       time.Time
}

// Service defines the interface for SRS algorithm operations
type Service interface {
	// ComputeNextReview derives the next scheduling state from the current
	// one and a rating. rnd supplies the jitter; nil uses DefaultRandom.
	ComputeNextReview(state State, rating domain.Rating, now time.Time, rnd RandomSource) Schedule

	// PostponeReview pushes the next review forward by a number of days,
	// counted from the due date or from now if the card is already overdue.
	PostponeReview(card *domain.CardRecord, days int, now time.Time) (*domain.CardRecord, error)

	// Params returns a copy of the parameters in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ComputeNextReview implements the Service interface
func (s *defaultService) ComputeNextReview(
	state State,
	rating domain.Rating,
	now time.Time,
	rnd RandomSource,
) Schedule {
	if rnd == nil {
		rnd = DefaultRandom()
	}
	return calculateSchedule(state, rating, now, rnd.Float64(), s.params)
}

// PostponeReview implements the Service interface for postponing reviews
func (s *defaultService) PostponeReview(
	card *domain.CardRecord,
	days int,
	now time.Time,
) (*domain.CardRecord, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	postponed := card.Clone()

	base := card.NextDueAt
	if base.Before(now) {
		base = now
	}
	postponed.NextDueAt = base.AddDate(0, 0, days)

	return postponed, nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}
