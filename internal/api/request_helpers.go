package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/api/shared"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/redact"
)

// requireUserID returns the authenticated learner or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := shared.GetUserID(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathWordID reads the {wordID} path parameter.
func getPathWordID(r *http.Request) (domain.WordID, error) {
	raw := chi.URLParam(r, "wordID")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return domain.ParseWordID(raw)
}

// handleUserAndWord extracts the learner and word ID, writing an error
// response if either is missing.
func handleUserAndWord(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, domain.WordID, bool) {
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return uuid.Nil, "", false
	}

	wordID, err := getPathWordID(r)
	if err != nil {
		log.Warn("invalid word ID", slog.String("value", chi.URLParam(r, "wordID")))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, "", false
	}

	return userID, wordID, true
}

// decodeAndValidate decodes the JSON body into v and validates it, writing
// a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		log.Warn("validation error", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}

	return true
}
