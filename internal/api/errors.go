package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/wordwise-srs/internal/api/shared"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/service/auth"
	"github.com/phrazzld/wordwise-srs/internal/service/study"
)

// MapErrorToStatusCode maps service errors to HTTP status codes. Anything
// unrecognised is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrAlreadyStudied):
		return http.StatusConflict

	case errors.Is(err, domain.ErrPersonaNotSet):
		return http.StatusPreconditionFailed

	case errors.Is(err, study.ErrDailyLimitReached):
		return http.StatusTooManyRequests

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidPersona),
		errors.Is(err, domain.ErrInvalidTimeZone),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrEmptyWordID),
		errors.Is(err, srs.ErrInvalidDays):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for err. Internal
// details never leave the server.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, domain.ErrNotFound):
		return "Word has not been studied"
	case errors.Is(err, domain.ErrAlreadyStudied):
		return "Word already studied"
	case errors.Is(err, domain.ErrPersonaNotSet):
		return "Choose a persona before studying"
	case errors.Is(err, study.ErrDailyLimitReached):
		return "Daily new word limit reached"

	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"
	case errors.Is(err, domain.ErrInvalidPersona):
		return "Invalid persona"
	case errors.Is(err, domain.ErrInvalidTimeZone):
		return "Invalid time zone"
	case errors.Is(err, domain.ErrEmptyWordID):
		return "Word ID is required"
	case errors.Is(err, srs.ErrInvalidDays):
		return "Days must be at least 1"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidDate):
		return "Validation error"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "timezone":
		return "unknown time zone"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for a service error. fallback replaces
// the generic message of unexpected errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
