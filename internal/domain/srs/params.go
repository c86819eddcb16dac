package srs

import (
	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Ease factor limits. There is no upper bound.
	InitialEaseFactor float64
	MinEaseFactor     float64

	// Interval growth for Hard and Easy reviews past the first two
	HardIntervalMultiplier float64
	EasyBonus              float64

	// Fixed intervals for the first and second successful review in a row
	GoodFirstIntervals [2]int
	EasyFirstIntervals [2]int

	// Uniform jitter applied to every interval, as a fraction of it
	JitterFraction float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	InitialEaseFactor float64
	MinEaseFactor     float64

	HardIntervalMultiplier float64
	EasyBonus              float64

	GoodFirstInterval  int
	GoodSecondInterval int
	EasyFirstInterval  int
	EasySecondInterval int

	JitterFraction float64
	DisableJitter  bool
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		InitialEaseFactor: domain.InitialEaseFactor,
		MinEaseFactor:     domain.MinEaseFactor,

		HardIntervalMultiplier: 1.2,
		EasyBonus:              1.5,

		GoodFirstIntervals: [2]int{1, 6},
		EasyFirstIntervals: [2]int{4, 10},

		// ±10%
		JitterFraction: 0.1,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the default.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.InitialEaseFactor > 0 {
		params.InitialEaseFactor = config.InitialEaseFactor
	}
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}

	if config.HardIntervalMultiplier > 0 {
		params.HardIntervalMultiplier = config.HardIntervalMultiplier
	}
	if config.EasyBonus > 0 {
		params.EasyBonus = config.EasyBonus
	}

	if config.GoodFirstInterval > 0 {
		params.GoodFirstIntervals[0] = config.GoodFirstInterval
	}
	if config.GoodSecondInterval > 0 {
		params.GoodFirstIntervals[1] = config.GoodSecondInterval
	}
	if config.EasyFirstInterval > 0 {
		params.EasyFirstIntervals[0] = config.EasyFirstInterval
	}
	if config.EasySecondInterval > 0 {
		params.EasyFirstIntervals[1] = config.EasySecondInterval
	}

	if config.JitterFraction > 0 && config.JitterFraction < 1 {
		params.JitterFraction = config.JitterFraction
	}
	if config.DisableJitter {
		params.JitterFraction = 0
	}

	// Neither ease may go below the SM-2 floor, and the configured floor
	// can never sit above the starting ease
	if params.InitialEaseFactor < domain.MinEaseFactor {
		params.InitialEaseFactor = domain.MinEaseFactor
	}
	if params.MinEaseFactor < domain.MinEaseFactor {
		params.MinEaseFactor = domain.MinEaseFactor
	}
	if params.MinEaseFactor > params.InitialEaseFactor {
		params.MinEaseFactor = params.InitialEaseFactor
	}

	return params
}
