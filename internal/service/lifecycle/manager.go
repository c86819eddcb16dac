// Package lifecycle maps learner events onto card record mutations: first
// study, reviews, leech flagging and promotion to the Review stage.
//
// Every mutating method checks its preconditions before touching the
// profile, so a returned error always leaves the profile unchanged.
package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
)

// ErrNilProfile is returned when an operation is handed no profile.
var ErrNilProfile = errors.New("learner profile cannot be nil")

// ReviewResult describes what a single review did to a card.
type ReviewResult struct {
	Card          *domain.CardRecord
	Schedule      srs.Schedule
	PreviousState domain.CardState
	BecameLeech   bool // IsLeech flipped during this review
	Promoted      bool // Card moved from Learning to Review during this review
}

// Manager applies learner events to a LearnerProfile.
type Manager struct {
	scheduler srs.Service
}

// NewManager creates a Manager backed by the given scheduler.
func NewManager(scheduler srs.Service) *Manager {
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	return &Manager{scheduler: scheduler}
}

// MarkNewWordStudied creates the card record for a word seen for the first
// time. It returns domain.ErrAlreadyStudied if the word already has one.
func (m *Manager) MarkNewWordStudied(
	p *domain.LearnerProfile,
	wordID domain.WordID,
	now time.Time,
) (*domain.CardRecord, error) {
	if p == nil {
		return nil, ErrNilProfile
	}

	if _, exists := p.Card(wordID); exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyStudied, wordID)
	}

	card, err := domain.NewCardRecord(wordID, now)
	if err != nil {
		return nil, err
	}
	card.EaseFactor = m.scheduler.Params().InitialEaseFactor

	if p.Cards == nil {
		p.Cards = make(map[domain.WordID]*domain.CardRecord)
	}
	p.Cards[wordID] = card
	p.TotalWordsStudied++
	p.WordsInReview++
	p.UpdatedAt = now

	return card, nil
}

// ReviewWord applies a rating to an existing card. It returns
// domain.ErrNotFound when the word has never been studied.
//
// A card reaching the mastery interval while not yet in Review is promoted
// and moves from the in-review to the mastered counter. Cards already in
// Review are never demoted, even after a lapse.
func (m *Manager) ReviewWord(
	p *domain.LearnerProfile,
	wordID domain.WordID,
	rating domain.Rating,
	now time.Time,
	rnd srs.RandomSource,
) (ReviewResult, error) {
	if p == nil {
		return ReviewResult{}, ErrNilProfile
	}

	if !rating.Valid() {
		return ReviewResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	card, exists := p.Card(wordID)
	if !exists {
		return ReviewResult{}, fmt.Errorf("%w: %s", domain.ErrNotFound, wordID)
	}

	schedule := m.scheduler.ComputeNextReview(srs.StateOf(card), rating, now, rnd)
	result := ReviewResult{
		Card:          card,
		Schedule:      schedule,
		PreviousState: card.State,
	}

	card.EaseFactor = schedule.EaseFactor
	card.Repetitions = schedule.Repetitions
	card.IntervalDays = schedule.IntervalDays
	card.LastReviewAt = now
	card.NextDueAt = schedule.NextDueAt
	card.ReviewCount++

	if rating == domain.RatingAgain {
		card.LeechCount++
		if card.LeechCount >= domain.LeechThreshold && !card.IsLeech {
			card.IsLeech = true
			result.BecameLeech = true
		}
	}

	if card.IntervalDays >= domain.MasteryIntervalDays && result.PreviousState != domain.CardStateReview {
		card.State = domain.CardStateReview
		p.WordsInReview--
		p.WordsMastered++
		result.Promoted = true
	}

	p.UpdatedAt = now

	return result, nil
}

// PostponeWord pushes a card's next review back by days.
func (m *Manager) PostponeWord(
	p *domain.LearnerProfile,
	wordID domain.WordID,
	days int,
	now time.Time,
) (*domain.CardRecord, error) {
	if p == nil {
		return nil, ErrNilProfile
	}

	card, exists := p.Card(wordID)
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, wordID)
	}

	postponed, err := m.scheduler.PostponeReview(card, days, now)
	if err != nil {
		return nil, err
	}

	p.Cards[wordID] = postponed
	p.UpdatedAt = now

	return postponed, nil
}

// GetDueReviews returns the words whose next review is at or before now,
// oldest due date first. Ties are broken by word ID.
func (m *Manager) GetDueReviews(p *domain.LearnerProfile, now time.Time) []domain.WordID {
	if p == nil {
		return nil
	}

	due := make([]*domain.CardRecord, 0)
	for _, card := range p.Cards {
		if card.State == domain.CardStateNew {
			continue
		}
		if card.IsDue(now) {
			due = append(due, card)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextDueAt.Equal(due[j].NextDueAt) {
			return due[i].NextDueAt.Before(due[j].NextDueAt)
		}
		return due[i].WordID < due[j].WordID
	})

	ids := make([]domain.WordID, len(due))
	for i, card := range due {
		ids[i] = card.WordID
	}
	return ids
}

// GetStudiedWordIDs returns the set of words that have a card record. The
// content catalog uses it to exclude seen words from new material.
func (m *Manager) GetStudiedWordIDs(p *domain.LearnerProfile) map[domain.WordID]struct{} {
	ids := make(map[domain.WordID]struct{})
	if p == nil {
		return ids
	}
	for id := range p.Cards {
		ids[id] = struct{}{}
	}
	return ids
}

// Leeches returns the flagged words sorted by ID.
func (m *Manager) Leeches(p *domain.LearnerProfile) []domain.WordID {
	ids := make([]domain.WordID, 0)
	if p == nil {
		return ids
	}
	for id, card := range p.Cards {
		if card.IsLeech {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
