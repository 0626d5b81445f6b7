package alert

import (
	"time"

	"studio_alert_bot/internal/domain/studio"
)

// HorizonDays is the lookahead used to classify due dates as upcoming.
const HorizonDays = 7

// Window is the date range an evaluation pass compares due dates against.
type Window struct {
	TodayStart time.Time // local midnight of "now"
	HorizonEnd time.Time // last instant of TodayStart+HorizonDays
}

// NewWindow computes the window for now. It must be called for every pass.
func NewWindow(now time.Time) Window {
	y, m, d := now.Date()
	loc := now.Location()
	return Window{
		TodayStart: time.Date(y, m, d, 0, 0, 0, 0, loc),
		HorizonEnd: time.Date(y, m, d+HorizonDays, 23, 59, 59, int(time.Second-time.Nanosecond), loc),
	}
}

// Overdue reports whether the date is strictly before today.
func (w Window) Overdue(d studio.Date) bool {
	if !d.Valid {
		return false
	}
	return d.Midnight(w.TodayStart.Location()).Before(w.TodayStart)
}

// Upcoming reports whether the date falls in [TodayStart, HorizonEnd].
func (w Window) Upcoming(d studio.Date) bool {
	if !d.Valid {
		return false
	}
	day := d.Midnight(w.TodayStart.Location())
	return !day.Before(w.TodayStart) && !day.After(w.HorizonEnd)
}
