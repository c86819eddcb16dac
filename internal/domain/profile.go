package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyProfileUserID is returned when a profile has no owner.
var ErrEmptyProfileUserID = errors.New("learner profile user ID cannot be empty")

// LearnerProfile is the aggregate owning every card record and daily
// activity entry of one learner. It is loaded, mutated by a single event and
// saved back as a unit.
type LearnerProfile struct {
	UserID   uuid.UUID               `json:"user_id"`
	Cards    map[WordID]*CardRecord  `json:"cards"`
	Activity map[Date]*DailyActivity `json:"activity"`
	Persona  Persona                 `json:"persona,omitempty"`
	TimeZone string                  `json:"time_zone,omitempty"` // IANA name; empty uses the service default

	LastStudyDate Date `json:"last_study_date,omitempty"`
	Streak        int  `json:"streak"`
	LongestStreak int  `json:"longest_streak"`

	TotalWordsStudied int `json:"total_words_studied"`
	WordsInReview     int `json:"words_in_review"` // Studied but not yet graduated to Review
	WordsMastered     int `json:"words_mastered"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLearnerProfile creates the empty profile of a learner who has not
// onboarded yet. Persona is unset.
func NewLearnerProfile(userID uuid.UUID, now time.Time) (*LearnerProfile, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyProfileUserID
	}

	return &LearnerProfile{
		UserID:    userID,
		Cards:     make(map[WordID]*CardRecord),
		Activity:  make(map[Date]*DailyActivity),
		Persona:   PersonaUnset,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Card returns the record for wordID, if any.
func (p *LearnerProfile) Card(wordID WordID) (*CardRecord, bool) {
	card, ok := p.Cards[wordID]
	return card, ok
}

// ActivityOn returns the activity for date, or nil if nothing was recorded.
func (p *LearnerProfile) ActivityOn(date Date) *DailyActivity {
	return p.Activity[date]
}

// Location resolves the learner's time zone, falling back to fallback
// (or UTC) when none is set.
func (p *LearnerProfile) Location(fallback *time.Location) (*time.Location, error) {
	if p.TimeZone == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, p.TimeZone)
	}
	return loc, nil
}

// Validate checks the profile and every card it owns.
func (p *LearnerProfile) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProfileUserID
	}

	if p.Streak < 0 || p.LongestStreak < 0 || p.TotalWordsStudied < 0 ||
		p.WordsInReview < 0 || p.WordsMastered < 0 {
		return ErrNegativeCounter
	}

	for id, card := range p.Cards {
		if card.WordID != id {
			return fmt.Errorf("%w: card keyed %q has word ID %q", ErrValidation, id, card.WordID)
		}
		if err := card.Validate(); err != nil {
			return fmt.Errorf("card %q: %w", id, err)
		}
	}

	return nil
}

// LoadLocation validates an IANA time zone name.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	return loc, nil
}
