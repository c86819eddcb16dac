package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/api/shared"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/platform/logger"
	"github.com/phrazzld/wordwise-srs/internal/service/study"
)

// StudyHandler serves the learner endpoints.
type StudyHandler struct {
	service study.Service
	logger  *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(service study.Service, logger *slog.Logger) *StudyHandler {
	if service == nil {
		panic("study service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StudyHandler{
		service: service,
		logger:  logger.With(slog.String("component", "study_handler")),
	}
}

// GetProfile handles GET /api/profile.
func (h *StudyHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(profile))
}

// UpdatePreferences handles PUT /api/profile/preferences.
func (h *StudyHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req PreferencesRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	profile, err := h.service.SetPreferences(r.Context(), userID, study.Preferences{
		Persona:  req.Persona,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update preferences")
		return
	}

	log.Debug("preferences updated",
		slog.String("persona", string(profile.Persona)),
		slog.String("time_zone", profile.TimeZone))
	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(profile))
}

// LearnWord handles POST /api/words/{wordID}/learn.
func (h *StudyHandler) LearnWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserAndWord(w, r, log)
	if !ok {
		return
	}

	result, err := h.service.LearnWord(r.Context(), userID, wordID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record new word")
		return
	}

	log.Debug("word learned",
		slog.String("word_id", wordID.String()),
		slog.Int("remaining_today", result.RemainingToday))
	shared.RespondWithJSON(w, r, http.StatusCreated, LearnResponse{
		Card:           cardToResponse(result.Card),
		RemainingToday: result.RemainingToday,
	})
}

// ReviewWord handles POST /api/words/{wordID}/review.
func (h *StudyHandler) ReviewWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserAndWord(w, r, log)
	if !ok {
		return
	}

	var req ReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	rating, err := domain.ParseRating(string(req.Rating))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.service.ReviewWord(r.Context(), userID, wordID, rating)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review recorded",
		slog.String("word_id", wordID.String()),
		slog.String("rating", rating.String()),
		slog.Int("interval_days", result.Card.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

// PostponeWord handles POST /api/words/{wordID}/postpone.
func (h *StudyHandler) PostponeWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, wordID, ok := handleUserAndWord(w, r, log)
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.service.PostponeWord(r.Context(), userID, wordID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// StudiedWords handles GET /api/words/studied.
func (h *StudyHandler) StudiedWords(w http.ResponseWriter, r *http.Request) {
	h.listWords(w, r, h.service.StudiedWords, "Failed to list studied words")
}

// DueReviews handles GET /api/reviews/due.
func (h *StudyHandler) DueReviews(w http.ResponseWriter, r *http.Request) {
	h.listWords(w, r, h.service.DueReviews, "Failed to list due reviews")
}

// Leeches handles GET /api/words/leeches.
func (h *StudyHandler) Leeches(w http.ResponseWriter, r *http.Request) {
	h.listWords(w, r, h.service.Leeches, "Failed to list leeches")
}

// Stats handles GET /api/stats?total_words=N. total_words defaults to 0.
func (h *StudyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	totalWords := 0
	if raw := r.URL.Query().Get("total_words"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "total_words must be a non-negative integer")
			return
		}
		totalWords = n
	}

	summary, err := h.service.Stats(r.Context(), userID, totalWords)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

type wordLister func(ctx context.Context, userID uuid.UUID) ([]domain.WordID, error)

func (h *StudyHandler) listWords(w http.ResponseWriter, r *http.Request, list wordLister, fallback string) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	ids, err := list(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, wordsToResponse(ids))
}
