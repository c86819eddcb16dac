// Package study orchestrates learner actions end to end. Each action loads
// the learner profile inside a transaction, applies the lifecycle and
// activity rules, persists the touched rows and publishes events once the
// transaction has committed.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
	"github.com/phrazzld/wordwise-srs/internal/service/stats"
)

// Service errors
var (
	// ErrDailyLimitReached indicates the learner has studied today's quota of new words.
	ErrDailyLimitReached = errors.New("daily new word limit reached")
)

// Preferences are the onboarding choices of a learner. Empty fields keep
// their current value.
type Preferences struct {
	Persona  string `json:"persona"`
	TimeZone string `json:"time_zone"`
}

// LearnResult is the outcome of studying a new word.
type LearnResult struct {
	Card           *domain.CardRecord `json:"card"`
	RemainingToday int                `json:"remaining_today"`
}

// Service is the application entry point for study actions.
type Service interface {
	// LearnWord records the first study of wordID. The learner must have a
	// persona (domain.ErrPersonaNotSet) and new words left today
	// (ErrDailyLimitReached).
	LearnWord(ctx context.Context, userID uuid.UUID, wordID domain.WordID) (*LearnResult, error)

	// ReviewWord applies a rating to a studied word.
	ReviewWord(
		ctx context.Context,
		userID uuid.UUID,
		wordID domain.WordID,
		rating domain.Rating,
	) (*lifecycle.ReviewResult, error)

	// PostponeWord pushes the next review of wordID back by days.
	PostponeWord(ctx context.Context, userID uuid.UUID, wordID domain.WordID, days int) (*domain.CardRecord, error)

	// SetPreferences stores the learner's persona and time zone.
	SetPreferences(ctx context.Context, userID uuid.UUID, prefs Preferences) (*domain.LearnerProfile, error)

	// Profile returns the learner's profile. Learners that never studied get
	// an empty profile that is not persisted.
	Profile(ctx context.Context, userID uuid.UUID) (*domain.LearnerProfile, error)

	// DueReviews lists the words due now, oldest first.
	DueReviews(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error)

	// StudiedWords lists every studied word, sorted.
	StudiedWords(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error)

	// Leeches lists the words flagged as leeches, sorted.
	Leeches(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error)

	// Stats summarises progress against a catalog of totalWords words.
	Stats(ctx context.Context, userID uuid.UUID, totalWords int) (stats.Summary, error)
}

// ServiceError wraps unexpected failures with the operation they happened in.
// Expected conditions are returned as their sentinel errors instead.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "learn_word", "review_word")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// expectedErrors are passed through unwrapped; callers map them to
// client-facing responses.
var expectedErrors = []error{
	ErrDailyLimitReached,
	domain.ErrValidation,
	domain.ErrAlreadyStudied,
	domain.ErrNotFound,
	domain.ErrPersonaNotSet,
	domain.ErrInvalidRating,
	domain.ErrInvalidPersona,
	domain.ErrEmptyWordID,
	domain.ErrInvalidDate,
	domain.ErrInvalidTimeZone,
	srs.ErrInvalidDays,
}

// IsExpected reports whether err is a client error rather than a failure.
func IsExpected(err error) bool {
	for _, target := range expectedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
