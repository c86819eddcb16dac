package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
)

// PreferencesRequest is the body of PUT /api/profile/preferences.
type PreferencesRequest struct {
	Persona  string `json:"persona"   validate:"required_without=TimeZone"`
	TimeZone string `json:"time_zone" validate:"required_without=Persona"`
}

// ReviewRequest is the body of POST /api/words/{wordID}/review. Rating is
// again, hard, good or easy, or 1 to 4 as a number or a string.
type ReviewRequest struct {
	Rating RatingInput `json:"rating" validate:"required"`
}

// RatingInput holds a rating as sent by the client. Parse it with
// domain.ParseRating.
type RatingInput string

// UnmarshalJSON accepts a JSON string or a JSON number.
func (r *RatingInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RatingInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rating must be a string or a number: %w", err)
	}
	*r = RatingInput(n.String())
	return nil
}

// PostponeRequest is the body of POST /api/words/{wordID}/postpone.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=3650"`
}

// CardResponse is the client view of a card record.
type CardResponse struct {
	WordID       string    `json:"word_id"`
	State        string    `json:"state"`
	Repetitions  int       `json:"repetitions"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	LastReviewAt time.Time `json:"last_review_at"`
	NextDueAt    time.Time `json:"next_due_at"`
	LeechCount   int       `json:"leech_count"`
	IsLeech      bool      `json:"is_leech"`
	ReviewCount  int       `json:"review_count"`
}

// ProfileResponse is the body of GET /api/profile.
type ProfileResponse struct {
	UserID            string         `json:"user_id"`
	Persona           string         `json:"persona,omitempty"`
	TimeZone          string         `json:"time_zone,omitempty"`
	LastStudyDate     string         `json:"last_study_date,omitempty"`
	Streak            int            `json:"streak"`
	LongestStreak     int            `json:"longest_streak"`
	TotalWordsStudied int            `json:"total_words_studied"`
	WordsInReview     int            `json:"words_in_review"`
	WordsMastered     int            `json:"words_mastered"`
	Cards             []CardResponse `json:"cards"`
}

// LearnResponse is the body of POST /api/words/{wordID}/learn.
type LearnResponse struct {
	Card           CardResponse `json:"card"`
	RemainingToday int          `json:"remaining_today"`
}

// ReviewResponse is the body of POST /api/words/{wordID}/review.
type ReviewResponse struct {
	Card          CardResponse `json:"card"`
	PreviousState string       `json:"previous_state"`
	BecameLeech   bool         `json:"became_leech"`
	Promoted      bool         `json:"promoted"`
}

// WordListResponse is the body of the word list endpoints.
type WordListResponse struct {
	Words []string `json:"words"`
	Count int      `json:"count"`
}

func cardToResponse(c *domain.CardRecord) CardResponse {
	return CardResponse{
		WordID:       c.WordID.String(),
		State:        string(c.State),
		Repetitions:  c.Repetitions,
		EaseFactor:   c.EaseFactor,
		IntervalDays: c.IntervalDays,
		LastReviewAt: c.LastReviewAt,
		NextDueAt:    c.NextDueAt,
		LeechCount:   c.LeechCount,
		IsLeech:      c.IsLeech,
		ReviewCount:  c.ReviewCount,
	}
}

func profileToResponse(p *domain.LearnerProfile) ProfileResponse {
	cards := make([]CardResponse, 0, len(p.Cards))
	for _, c := range p.Cards {
		cards = append(cards, cardToResponse(c))
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].WordID < cards[j].WordID })

	return ProfileResponse{
		UserID:            p.UserID.String(),
		Persona:           string(p.Persona),
		TimeZone:          p.TimeZone,
		LastStudyDate:     p.LastStudyDate.String(),
		Streak:            p.Streak,
		LongestStreak:     p.LongestStreak,
		TotalWordsStudied: p.TotalWordsStudied,
		WordsInReview:     p.WordsInReview,
		WordsMastered:     p.WordsMastered,
		Cards:             cards,
	}
}

func reviewToResponse(res *lifecycle.ReviewResult) ReviewResponse {
	return ReviewResponse{
		Card:          cardToResponse(res.Card),
		PreviousState: string(res.PreviousState),
		BecameLeech:   res.BecameLeech,
		Promoted:      res.Promoted,
	}
}

func wordsToResponse(ids []domain.WordID) WordListResponse {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = id.String()
	}
	return WordListResponse{Words: words, Count: len(words)}
}
