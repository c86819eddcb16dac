package srs

import (
	"math"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// qualityOf maps a rating onto the classic SM-2 quality scale (2-5).
func qualityOf(rating domain.Rating) int {
	return int(rating) + 1
}

// calculateNewRepetitions resets the streak of successful reviews on a lapse
// (quality below 3) and extends it otherwise.
func calculateNewRepetitions(repetitions int, quality int) int {
	if quality < 3 {
		return 0
	}
	return repetitions + 1
}

// calculateNewEaseFactor applies the SM-2 ease update
//
//	ease' = ease + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// and clamps the result to params.MinEaseFactor. With q in 2..5 this moves
// the ease by -0.32, -0.14, 0 and +0.10 respectively.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	d := float64(5 - quality)
	newEF := currentEF + (0.1 - d*(0.08+d*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateRawInterval determines the pre-jitter interval in days.
//
// Again always restarts at one day. Hard grows the current interval by a
// small fixed multiplier. Good and Easy use fixed intervals for the first two
// successful reviews in a row and grow by the new ease factor afterwards,
// Easy with an extra bonus.
func calculateRawInterval(
	currentInterval int,
	newRepetitions int,
	newEF float64,
	rating domain.Rating,
	params *Params,
) int {
	var interval int

	switch rating {
	case domain.RatingHard:
		interval = roundDays(float64(currentInterval) * params.HardIntervalMultiplier)
	case domain.RatingGood:
		switch newRepetitions {
		case 1:
			interval = params.GoodFirstIntervals[0]
		case 2:
			interval = params.GoodFirstIntervals[1]
		default:
			interval = roundDays(float64(currentInterval) * newEF)
		}
	case domain.RatingEasy:
		switch newRepetitions {
		case 1:
			interval = params.EasyFirstIntervals[0]
		case 2:
			interval = params.EasyFirstIntervals[1]
		default:
			interval = roundDays(float64(currentInterval) * newEF * params.EasyBonus)
		}
	default:
		// Again, and anything that is not a valid rating
		interval = 1
	}

	if interval < 1 {
		interval = 1
	}
	return interval
}

// applyJitter scales raw by 1 + U(-fraction, fraction), where U is derived
// from a uniform sample u in [0, 1), and floors the result at one day.
func applyJitter(raw int, u float64, fraction float64) int {
	offset := (2*u - 1) * fraction
	interval := roundDays(float64(raw) * (1 + offset))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// calculateSchedule runs the complete SM-2 step for one review. It never
// fails; inputs that already violate the card invariants are brought back
// into range first.
func calculateSchedule(
	state State,
	rating domain.Rating,
	now time.Time,
	u float64,
	params *Params,
) Schedule {
	if state.EaseFactor < params.MinEaseFactor {
		state.EaseFactor = params.MinEaseFactor
	}
	if state.IntervalDays < 1 {
		state.IntervalDays = 1
	}
	if state.Repetitions < 0 {
		state.Repetitions = 0
	}

	quality := qualityOf(rating)
	repetitions := calculateNewRepetitions(state.Repetitions, quality)
	ease := calculateNewEaseFactor(state.EaseFactor, quality, params)
	raw := calculateRawInterval(state.IntervalDays, repetitions, ease, rating, params)
	interval := applyJitter(raw, u, params.JitterFraction)

	return Schedule{
		EaseFactor:      ease,
		Repetitions:     repetitions,
		RawIntervalDays: raw,
		IntervalDays:    interval,
		NextDueAt:       now.AddDate(0, 0, interval),
	}
}

func roundDays(days float64) int {
	return int(math.Round(days))
}
