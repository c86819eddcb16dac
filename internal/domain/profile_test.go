package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLearnerProfile(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	p, err := NewLearnerProfile(userID, now)
	require.NoError(t, err)

	assert.Equal(t, userID, p.UserID)
	assert.Empty(t, p.Cards)
	assert.Empty(t, p.Activity)
	assert.False(t, p.Persona.IsSet(), "new learners must onboard before studying")
	assert.True(t, p.LastStudyDate.IsZero())
	assert.Zero(t, p.Streak)
	assert.NoError(t, p.Validate())

	_, err = NewLearnerProfile(uuid.Nil, now)
	assert.ErrorIs(t, err, ErrEmptyProfileUserID)
}

func TestLearnerProfileLocation(t *testing.T) {
	p, err := NewLearnerProfile(uuid.New(), time.Now())
	require.NoError(t, err)

	loc, err := p.Location(nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	loc, err = p.Location(tokyo)
	require.NoError(t, err)
	assert.Equal(t, tokyo, loc)

	p.TimeZone = "Europe/Berlin"
	loc, err = p.Location(tokyo)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	p.TimeZone = "Mars/Olympus_Mons"
	_, err = p.Location(tokyo)
	assert.ErrorIs(t, err, ErrInvalidTimeZone)
}

func TestLearnerProfileValidate(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	p, err := NewLearnerProfile(uuid.New(), now)
	require.NoError(t, err)

	card, err := NewCardRecord("w-1", now)
	require.NoError(t, err)
	p.Cards[card.WordID] = card
	assert.NoError(t, p.Validate())

	p.Cards["w-2"] = card
	assert.ErrorIs(t, p.Validate(), ErrValidation)
	delete(p.Cards, "w-2")

	card.IntervalDays = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidInterval)
	card.IntervalDays = 1

	p.Streak = -1
	assert.ErrorIs(t, p.Validate(), ErrNegativeCounter)
}

func TestDateOf(t *testing.T) {
	instant := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Date("2026-03-14"), DateOf(instant, nil))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, Date("2026-03-15"), DateOf(instant, tokyo))
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)

	assert.Equal(t, Date("2026-03-01"), d.AddDays(1))
	assert.Equal(t, Date("2026-02-27"), d.AddDays(-1))
	assert.Equal(t, Date("2025-12-31"), Date("2026-01-01").AddDays(-1))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), d.Time())

	_, err = ParseDate("28/02/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)

	var zero Date
	assert.True(t, zero.IsZero())
	assert.Equal(t, zero, zero.AddDays(1))
}

func TestDailyActivityAccuracy(t *testing.T) {
	var missing *DailyActivity
	assert.Zero(t, missing.Accuracy())

	a := &DailyActivity{ReviewsCompleted: 4, CorrectReviews: 3}
	assert.InDelta(t, 0.75, a.Accuracy(), 1e-9)
}
