package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in the learner's local time zone, formatted YYYY-MM-DD.
type Date string

// DateOf returns the calendar day of t in loc. A nil loc uses UTC.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc).Format(dateLayout))
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return Date(t.Format(dateLayout)), nil
}

// Time returns midnight UTC of the day. Zero time for the empty Date.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.Time()
	if t.IsZero() {
		return d
	}
	return Date(t.AddDate(0, 0, n).Format(dateLayout))
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == ""
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return string(d)
}

// DailyActivity holds the study counters for one calendar day.
// Counters only ever grow.
type DailyActivity struct {
	NewWordsStudied  int `json:"new_words_studied"`
	ReviewsCompleted int `json:"reviews_completed"`
	CorrectReviews   int `json:"correct_reviews"`
}

// Accuracy returns the share of correct reviews, or 0 with no reviews.
func (a *DailyActivity) Accuracy() float64 {
	if a == nil || a.ReviewsCompleted == 0 {
		return 0
	}
	return float64(a.CorrectReviews) / float64(a.ReviewsCompleted)
}
