package history

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

type windowKind int

const (
	kindLastDays windowKind = iota
	kindRange
	kindDay
)

// Window is a calendar-day span counted back from today in the service's
// location. Build one with LastDays, Range or Day.
type Window struct {
	kind      windowKind
	days      int
	startDays int
	endDays   int
}

// LastDays covers today and the n-1 days before it.
func LastDays(n int) Window { return Window{kind: kindLastDays, days: n} }

// Range covers the whole days from startDaysAgo through endDaysAgo.
func Range(startDaysAgo, endDaysAgo int) Window {
	return Window{kind: kindRange, startDays: startDaysAgo, endDays: endDaysAgo}
}

// Day covers exactly one whole day, daysAgo days back (0 is today).
func Day(daysAgo int) Window { return Window{kind: kindDay, startDays: daysAgo, endDays: daysAgo} }

// MaxDays bounds every day count a window accepts, roughly ten years back.
const MaxDays = 3650

// Validate reports a domain.ErrValidation-wrapped error for malformed windows.
func (w Window) Validate() error {
	var err error
	switch w.kind {
	case kindLastDays:
		err = validation.Errors{
			"days": validation.Validate(w.days, validation.Required.Error("must be at least 1"), validation.Min(1), validation.Max(MaxDays)),
		}.Filter()
	case kindRange:
		err = validation.Errors{
			"startDays": validation.Validate(w.startDays, validation.Min(0), validation.Max(MaxDays), validation.By(w.startAfterEnd)),
			"endDays":   validation.Validate(w.endDays, validation.Min(0), validation.Max(MaxDays)),
		}.Filter()
	case kindDay:
		err = validation.Errors{
			"daysAgo": validation.Validate(w.startDays, validation.Min(0), validation.Max(MaxDays)),
		}.Filter()
	default:
		err = errors.New("unknown window")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

func (w Window) startAfterEnd(interface{}) error {
	if w.startDays <= w.endDays {
		return errors.New("must be greater than endDays")
	}
	return nil
}

// Resolve returns the inclusive [start, end] instants of the window relative
// to now, in loc.
func (w Window) Resolve(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now.In(loc))

	var from, to int
	switch w.kind {
	case kindLastDays:
		from, to = w.days-1, 0
	default:
		from, to = w.startDays, w.endDays
	}
	start := today.AddDate(0, 0, -from)
	end := endOfDay(today.AddDate(0, 0, -to))
	return start, end
}

func (w Window) String() string {
	switch w.kind {
	case kindLastDays:
		return fmt.Sprintf("last %d days", w.days)
	case kindDay:
		return fmt.Sprintf("day %d ago", w.startDays)
	default:
		return fmt.Sprintf("days %d..%d ago", w.startDays, w.endDays)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
