package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/phrazzld/wordwise-srs/internal/domain/srs"
	"github.com/phrazzld/wordwise-srs/internal/service/lifecycle"
	"github.com/spf13/cobra"
)

// simStep is one review in a simulated schedule.
type simStep struct {
	Review      int
	Rating      domain.Rating
	ReviewedAt  time.Time
	Interval    int
	Ease        float64
	Repetitions int
	State       domain.CardState
	NextDueAt   time.Time
	Leech       bool
}

// simulate studies one word at start and reviews it on each due date with
// the given ratings.
func simulate(ratings []domain.Rating, start time.Time, rnd srs.RandomSource) ([]simStep, error) {
	manager := lifecycle.NewManager(srs.NewDefaultService())

	p, err := domain.NewLearnerProfile(uuid.New(), start)
	if err != nil {
		return nil, err
	}

	const word domain.WordID = "simulated"
	card, err := manager.MarkNewWordStudied(p, word, start)
	if err != nil {
		return nil, err
	}

	steps := make([]simStep, 0, len(ratings))
	for i, rating := range ratings {
		reviewedAt := card.NextDueAt
		result, err := manager.ReviewWord(p, word, rating, reviewedAt, rnd)
		if err != nil {
			return nil, err
		}
		card = result.Card

		steps = append(steps, simStep{
			Review:      i + 1,
			Rating:      rating,
			ReviewedAt:  reviewedAt,
			Interval:    card.IntervalDays,
			Ease:        card.EaseFactor,
			Repetitions: card.Repetitions,
			State:       card.State,
			NextDueAt:   card.NextDueAt,
			Leech:       card.IsLeech,
		})
	}
	return steps, nil
}

func parseRatings(raw string) ([]domain.Rating, error) {
	parts := strings.Split(raw, ",")
	ratings := make([]domain.Rating, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := domain.ParseRating(part)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	if len(ratings) == 0 {
		return nil, fmt.Errorf("%w: no ratings given", domain.ErrInvalidRating)
	}
	return ratings, nil
}

func newSimulateCmd() *cobra.Command {
	var (
		rawRatings string
		seed       uint64
		startDate  string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Print the schedule a word would follow for a sequence of ratings",
		Long: `simulate studies a single word and reviews it on every due date with the
given ratings, printing the resulting intervals. A seed of 0 disables jitter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ratings, err := parseRatings(rawRatings)
			if err != nil {
				return err
			}

			start := time.Now().UTC().Truncate(24 * time.Hour)
			if startDate != "" {
				d, err := domain.ParseDate(startDate)
				if err != nil {
					return err
				}
				start = d.Time()
			}

			var rnd srs.RandomSource = srs.FixedRandom(0.5)
			if seed != 0 {
				rnd = srs.NewSeededRandom(seed)
			}

			steps, err := simulate(ratings, start, rnd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tRATING\tREVIEWED\tINTERVAL\tEASE\tREPS\tSTATE\tNEXT DUE\tLEECH")
			for _, s := range steps {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.2f\t%d\t%s\t%s\t%t\n",
					s.Review, s.Rating, s.ReviewedAt.Format("2006-01-02"), s.Interval, s.Ease,
					s.Repetitions, s.State, s.NextDueAt.Format("2006-01-02"), s.Leech)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&rawRatings, "ratings", "good,good,good,good", "comma-separated ratings (again, hard, good, easy)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "jitter seed; 0 disables jitter")
	cmd.Flags().StringVar(&startDate, "start", "", "study date of the word, YYYY-MM-DD (default: today)")
	return cmd
}
