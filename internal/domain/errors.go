package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyStudied is returned when a word that already has a card
	// record is introduced again. Callers usually ignore it.
	ErrAlreadyStudied = errors.New("word already studied")

	// ErrNotFound is returned when a review targets a word with no card record.
	ErrNotFound = errors.New("card record not found")

	// ErrPersonaNotSet is returned by daily-limit queries before onboarding
	// has chosen a persona.
	ErrPersonaNotSet = errors.New("persona not set")

	// ErrInvalidRating is returned when a rating cannot be parsed.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidPersona is returned when a persona name is not recognised.
	ErrInvalidPersona = errors.New("invalid persona")

	// ErrEmptyWordID is returned when a word identifier is blank.
	ErrEmptyWordID = errors.New("word ID cannot be empty")

	// ErrInvalidDate is returned when a calendar date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTimeZone is returned when a time zone name cannot be loaded.
	ErrInvalidTimeZone = errors.New("invalid time zone")
)
