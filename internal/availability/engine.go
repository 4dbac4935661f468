package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoDateSelected is returned when slots are requested without a
	// date. Distinct from ErrNoSlotsRemain so the caller can render the
	// right prompt.
	ErrNoDateSelected = errors.New("no date selected")

	// ErrNoSlotsRemain is returned when the same-day cutoff empties the
	// slot ladder. The caller must prompt for a different day.
	ErrNoSlotsRemain = errors.New("no slots remain for this day")

	// ErrDayUnavailable is returned for past days and the weekly
	// closure day.
	ErrDayUnavailable = errors.New("day is not bookable")

	// ErrMonthInPast is returned when navigating to a month before the
	// current one.
	ErrMonthInPast = errors.New("month is in the past")
)

// DateLayout is the calendar-day identifier format used on the wire.
const DateLayout = "2006-01-02"

// slotLayout renders 12-hour labels with zero-padded minutes, e.g.
// "8:00 AM" and "4:00 PM". The labels are echoed verbatim in the lead
// payload, so the format is part of the contract.
const slotLayout = "3:04 PM"

// Day is one cell of the month grid.
type Day struct {
	Day        int    `json:"day"`
	Date       string `json:"date"`
	Selectable bool   `json:"selectable"`
}

// Engine computes bookable days and time slots. All temporal math runs
// in the business's fixed timezone, never in server-local time.
type Engine struct {
	loc          *time.Location
	closedDay    time.Weekday
	openHour     int
	lastSlotHour int
	interval     time.Duration
	minLead      time.Duration
	now          func() time.Time
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an availability engine. An unknown timezone falls back to
// UTC rather than failing the whole service.
func New(timezone string, closedDay time.Weekday, openHour, lastSlotHour int, interval, minLead time.Duration, opts ...Option) *Engine {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	e := &Engine{
		loc:          loc,
		closedDay:    closedDay,
		openHour:     openHour,
		lastSlotHour: lastSlotHour,
		interval:     interval,
		minLead:      minLead,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location exposes the business timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// today returns midnight of the current calendar day in the business
// timezone.
func (e *Engine) today() time.Time {
	n := e.now().In(e.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc)
}

// MonthGrid returns every day of the given month with its
// selectability. Months before the current one are not navigable.
func (e *Engine) MonthGrid(year int, month time.Month) ([]Day, error) {
	today := e.today()
	first := time.Date(year, month, 1, 0, 0, 0, 0, e.loc)
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, e.loc)
	if first.Before(currentMonth) {
		return nil, ErrMonthInPast
	}

	daysInMonth := first.AddDate(0, 1, -1).Day()
	grid := make([]Day, 0, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, e.loc)
		selectable := !date.Before(today) && date.Weekday() != e.closedDay
		grid = append(grid, Day{
			Day:        d,
			Date:       date.Format(DateLayout),
			Selectable: selectable,
		})
	}
	return grid, nil
}

// Slots returns the ordered bookable time labels for a selected day.
// On the current day, slots starting less than the minimum lead time
// from now are suppressed; if that empties the ladder the explicit
// ErrNoSlotsRemain condition is reported.
func (e *Engine) Slots(date string) ([]string, error) {
	if date == "" {
		return nil, ErrNoDateSelected
	}
	day, err := time.ParseInLocation(DateLayout, date, e.loc)
	if err != nil {
		return nil, fmt.Errorf("availability: bad date %q: %w", date, err)
	}

	today := e.today()
	if day.Before(today) || day.Weekday() == e.closedDay {
		return nil, ErrDayUnavailable
	}

	cutoff := e.now().In(e.loc).Add(e.minLead)
	sameDay := day.Equal(today)

	var slots []string
	last := time.Date(day.Year(), day.Month(), day.Day(), e.lastSlotHour, 0, 0, 0, e.loc)
	for t := time.Date(day.Year(), day.Month(), day.Day(), e.openHour, 0, 0, 0, e.loc); !t.After(last); t = t.Add(e.interval) {
		if sameDay && t.Before(cutoff) {
			continue
		}
		slots = append(slots, t.Format(slotLayout))
	}

	if len(slots) == 0 {
		return nil, ErrNoSlotsRemain
	}
	return slots, nil
}
