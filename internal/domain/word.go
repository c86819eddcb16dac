package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// WordID is the stable identifier the content catalog assigns to a word.
// It is kept distinct from other string identifiers so card maps cannot be
// keyed by the wrong kind of ID.
type WordID string

// ParseWordID trims and validates a raw identifier.
func ParseWordID(raw string) (WordID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyWordID
	}
	return WordID(id), nil
}

// String implements fmt.Stringer.
func (id WordID) String() string {
	return string(id)
}

// Rating is the learner's recall quality for a single review.
type Rating int

// Possible rating values
const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

var ratingNames = map[Rating]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

// ParseRating accepts either the rating name (again, hard, good, easy) or
// its numeric value (1-4).
func ParseRating(raw string) (Rating, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for r, name := range ratingNames {
		if s == name {
			return r, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Rating(n).Valid() {
		return Rating(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, raw)
}

// Valid reports whether r is one of the four defined ratings.
func (r Rating) Valid() bool {
	_, ok := ratingNames[r]
	return ok
}

// String returns the lowercase rating name.
func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// Successful reports whether the rating counts as a correct recall.
// Only Again is a lapse.
func (r Rating) Successful() bool {
	return r != RatingAgain
}

// CardState is the learning stage of a card.
type CardState string

// Possible card states
const (
	CardStateNew      CardState = "new"
	CardStateLearning CardState = "learning"
	CardStateReview   CardState = "review"
)

// ParseCardState converts a stored state name back into a CardState.
func ParseCardState(raw string) (CardState, error) {
	switch s := CardState(raw); s {
	case CardStateNew, CardStateLearning, CardStateReview:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
}

// Persona is the pace profile a learner picks during onboarding.
type Persona string

// Known personas. The empty persona means onboarding has not happened yet.
const (
	PersonaUnset    Persona = ""
	PersonaBeginner Persona = "beginner"
	PersonaCasual   Persona = "casual"
	PersonaSerious  Persona = "serious"
)

// Personas lists the selectable personas in display order.
func Personas() []Persona {
	return []Persona{PersonaBeginner, PersonaCasual, PersonaSerious}
}

// ParsePersona validates a persona name. An empty string is rejected; use
// PersonaUnset directly to represent a learner who has not onboarded.
func ParsePersona(raw string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Personas() {
		if p == known {
			return p, nil
		}
	}
	return PersonaUnset, fmt.Errorf("%w: %q", ErrInvalidPersona, raw)
}

// IsSet reports whether onboarding has chosen a persona.
func (p Persona) IsSet() bool {
	return p != PersonaUnset
}
