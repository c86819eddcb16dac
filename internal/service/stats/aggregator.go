// Package stats derives dashboard numbers from a learner profile. It only
// reads the profile.
package stats

import (
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// Default forecast settings
const (
	DefaultFallbackNewWordsPerDay = 5
	DefaultForecastDays           = 30
)

// Summary is the dashboard view of a learner's progress.
type Summary struct {
	TotalWords        int `json:"total_words"`
	Studied           int `json:"studied"`
	NewWords          int `json:"new_words"`
	LearningWords     int `json:"learning_words"`
	ReviewWords       int `json:"review_words"`
	MasteredWords     int `json:"mastered_words"`
	DueToday          int `json:"due_today"`
	ForecastThisMonth int `json:"forecast_this_month"`
	Leeches           int `json:"leeches"`

	Streak        int     `json:"streak"`
	LongestStreak int     `json:"longest_streak"`
	TodayNewWords int     `json:"today_new_words"`
	TodayReviews  int     `json:"today_reviews"`
	TodayAccuracy float64 `json:"today_accuracy"`
}

// Aggregator computes Summary values.
type Aggregator struct {
	// FallbackNewWordsPerDay is the pace assumed when nothing was studied today.
	FallbackNewWordsPerDay int
	// ForecastDays is the length of the forecast window.
	ForecastDays int
}

// NewAggregator creates an Aggregator. Non-positive arguments use the defaults.
func NewAggregator(fallbackNewWordsPerDay, forecastDays int) *Aggregator {
	if fallbackNewWordsPerDay <= 0 {
		fallbackNewWordsPerDay = DefaultFallbackNewWordsPerDay
	}
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}
	return &Aggregator{
		FallbackNewWordsPerDay: fallbackNewWordsPerDay,
		ForecastDays:           forecastDays,
	}
}

// Compute summarises p. totalWords is the size of the content catalog and
// loc the zone used to pick "today" when the learner has none set.
func (a *Aggregator) Compute(
	p *domain.LearnerProfile,
	totalWords int,
	now time.Time,
	loc *time.Location,
) Summary {
	var s Summary
	s.TotalWords = totalWords
	if p == nil {
		s.NewWords = max(0, totalWords)
		s.ForecastThisMonth = min(a.fallback()*a.days(), s.NewWords)
		return s
	}

	s.Studied = len(p.Cards)
	s.NewWords = max(0, totalWords-s.Studied)

	for _, card := range p.Cards {
		switch card.State {
		case domain.CardStateLearning:
			s.LearningWords++
		case domain.CardStateReview:
			s.ReviewWords++
		}
		if card.IsMastered() {
			s.MasteredWords++
		}
		if card.IsDue(now) {
			s.DueToday++
		}
		if card.IsLeech {
			s.Leeches++
		}
	}

	if userLoc, err := p.Location(loc); err == nil {
		loc = userLoc
	}
	today := p.ActivityOn(domain.DateOf(now, loc))

	perDay := a.fallback()
	if today != nil && today.NewWordsStudied > 0 {
		perDay = today.NewWordsStudied
		s.TodayNewWords = today.NewWordsStudied
	}
	if today != nil {
		s.TodayReviews = today.ReviewsCompleted
		s.TodayAccuracy = today.Accuracy()
	}
	s.ForecastThisMonth = min(perDay*a.days(), s.NewWords)

	s.Streak = p.Streak
	s.LongestStreak = p.LongestStreak

	return s
}

func (a *Aggregator) fallback() int {
	if a.FallbackNewWordsPerDay <= 0 {
		return DefaultFallbackNewWordsPerDay
	}
	return a.FallbackNewWordsPerDay
}

func (a *Aggregator) days() int {
	if a.ForecastDays <= 0 {
		return DefaultForecastDays
	}
	return a.ForecastDays
}
