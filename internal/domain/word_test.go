package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWordID(t *testing.T) {
	id, err := ParseWordID("  w-42 ")
	require.NoError(t, err)
	assert.Equal(t, WordID("w-42"), id)

	_, err = ParseWordID("   ")
	assert.ErrorIs(t, err, ErrEmptyWordID)
}

func TestParseRating(t *testing.T) {
	testCases := []struct {
		input    string
		expected Rating
		wantErr  bool
	}{
		{input: "again", expected: RatingAgain},
		{input: "Hard", expected: RatingHard},
		{input: " good ", expected: RatingGood},
		{input: "EASY", expected: RatingEasy},
		{input: "1", expected: RatingAgain},
		{input: "4", expected: RatingEasy},
		{input: "0", wantErr: true},
		{input: "5", wantErr: true},
		{input: "perfect", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRating(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRatingHelpers(t *testing.T) {
	assert.True(t, RatingGood.Valid())
	assert.False(t, Rating(9).Valid())
	assert.Equal(t, "hard", RatingHard.String())
	assert.Equal(t, "rating(9)", Rating(9).String())

	assert.False(t, RatingAgain.Successful())
	assert.True(t, RatingHard.Successful())
	assert.True(t, RatingGood.Successful())
	assert.True(t, RatingEasy.Successful())
}

func TestParsePersona(t *testing.T) {
	p, err := ParsePersona("Casual")
	require.NoError(t, err)
	assert.Equal(t, PersonaCasual, p)
	assert.True(t, p.IsSet())

	_, err = ParsePersona("")
	assert.ErrorIs(t, err, ErrInvalidPersona)

	_, err = ParsePersona("hardcore")
	assert.ErrorIs(t, err, ErrInvalidPersona)

	assert.False(t, PersonaUnset.IsSet())
}

func TestParseCardState(t *testing.T) {
	s, err := ParseCardState("review")
	require.NoError(t, err)
	assert.Equal(t, CardStateReview, s)

	_, err = ParseCardState("graduated")
	assert.ErrorIs(t, err, ErrInvalidState)
}
