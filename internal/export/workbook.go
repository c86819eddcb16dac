// Package export writes a learner's card records and study history to an
// xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/phrazzld/wordwise-srs/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	CardsSheet    = "Cards"
	ActivitySheet = "Activity"
)

const timeLayout = "2006-01-02 15:04"

// CardsHeader is the first row of the Cards sheet.
var CardsHeader = []any{
	"Word", "State", "Repetitions", "Ease", "Interval (days)",
	"Last review", "Next due", "Again count", "Leech", "Due now",
}

// ActivityHeader is the first row of the Activity sheet.
var ActivityHeader = []any{"Date", "New words", "Reviews", "Correct", "Accuracy"}

// ErrNilProfile is returned when there is nothing to export.
var ErrNilProfile = errors.New("cannot export a nil profile")

// WriteWorkbook writes p as an xlsx workbook to w. Times are rendered in
// UTC; now decides the "Due now" column.
func WriteWorkbook(w io.Writer, p *domain.LearnerProfile, now time.Time) error {
	if p == nil {
		return ErrNilProfile
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", CardsSheet); err != nil {
		return fmt.Errorf("failed to name cards sheet: %w", err)
	}
	if _, err := f.NewSheet(ActivitySheet); err != nil {
		return fmt.Errorf("failed to create activity sheet: %w", err)
	}

	if err := writeCards(f, p, now); err != nil {
		return err
	}
	if err := writeActivity(f, p); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeCards(f *excelize.File, p *domain.LearnerProfile, now time.Time) error {
	ids := make([]domain.WordID, 0, len(p.Cards))
	for id := range p.Cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([][]any, 0, len(ids)+1)
	rows = append(rows, CardsHeader)
	for _, id := range ids {
		card := p.Cards[id]
		rows = append(rows, []any{
			string(card.WordID),
			string(card.State),
			card.Repetitions,
			strconv.FormatFloat(card.EaseFactor, 'f', 2, 64),
			card.IntervalDays,
			card.LastReviewAt.UTC().Format(timeLayout),
			card.NextDueAt.UTC().Format(timeLayout),
			card.LeechCount,
			yesNo(card.IsLeech),
			yesNo(card.IsDue(now)),
		})
	}

	if err := setRows(f, CardsSheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(CardsSheet, "A", "A", 24)
}

func writeActivity(f *excelize.File, p *domain.LearnerProfile) error {
	dates := make([]domain.Date, 0, len(p.Activity))
	for d := range p.Activity {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	rows := make([][]any, 0, len(dates)+1)
	rows = append(rows, ActivityHeader)
	for _, d := range dates {
		a := p.Activity[d]
		rows = append(rows, []any{
			d.String(),
			a.NewWordsStudied,
			a.ReviewsCompleted,
			a.CorrectReviews,
			strconv.FormatFloat(a.Accuracy()*100, 'f', 0, 64) + "%",
		})
	}

	return setRows(f, ActivitySheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("invalid cell for row %d: %w", i+1, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
