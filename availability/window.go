// Package availability implements the order availability engine: the
// advance-order window calculation and the day-by-day enumeration of
// orderable dates. Everything here is a pure function of its inputs; all
// I/O stays with the callers.
package availability

import (
	"time"

	"meal-order-service/calendar"
	"meal-order-service/models"
)

// Window is a concrete [Start, End] range of orderable dates, or empty.
// An empty window is a valid outcome (subscription ending before the
// advance window opens), not an error.
type Window struct {
	Start calendar.Date
	End   calendar.Date
	Empty bool
}

// startDayOffset loses one day of lead time once the brand-local hour
// reaches the cutoff; this models the kitchen's production cutoff.
func startDayOffset(now time.Time, loc *time.Location, settings models.BrandSettings) int {
	offset := settings.MinAdvanceOrderDays
	if calendar.HourIn(now, loc) >= settings.AdvanceOrderCutoffHour {
		offset++
	}
	return offset
}

// ComputeWindow intersects the brand's advance-order window with the
// subscription period. All comparisons are on normalized dates.
func ComputeWindow(now time.Time, loc *time.Location, settings models.BrandSettings, sub *models.Subscription) Window {
	today := calendar.DateOf(now, loc)
	advanceStart := today.AddDays(startDayOffset(now, loc, settings))
	advanceEnd := today.AddDays(settings.MaxAdvanceOrderDays)

	start := calendar.MaxDate(advanceStart, sub.StartDate)
	end := calendar.MinDate(advanceEnd, sub.EndDate)
	if start.After(end) {
		return Window{Empty: true}
	}
	return Window{Start: start, End: end}
}

// DateVerdict classifies a requested order date against the window, with
// a distinct outcome per rejection cause.
type DateVerdict int

const (
	DateOK DateVerdict = iota
	DateTooEarly
	DateBeforeCutoff
	DateTooLate
	DateOutsideSubscription
)

// ClassifyDate re-derives the window bounds for a single date at write
// time. DateBeforeCutoff is distinguished from DateTooEarly so the caller
// can tell the customer the date was lost to today's cutoff rather than
// to the minimum lead time.
func ClassifyDate(now time.Time, loc *time.Location, settings models.BrandSettings, sub *models.Subscription, date calendar.Date) DateVerdict {
	today := calendar.DateOf(now, loc)
	minStart := today.AddDays(settings.MinAdvanceOrderDays)
	advanceStart := today.AddDays(startDayOffset(now, loc, settings))
	advanceEnd := today.AddDays(settings.MaxAdvanceOrderDays)

	switch {
	case date.Before(minStart):
		return DateTooEarly
	case date.Before(advanceStart):
		return DateBeforeCutoff
	case date.After(advanceEnd):
		return DateTooLate
	case date.Before(sub.StartDate) || date.After(sub.EndDate):
		return DateOutsideSubscription
	}
	return DateOK
}
