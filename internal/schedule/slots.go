package schedule

import (
	"time"
)

const DateLayout = "2006-01-02"

// Window is the configured daily booking window. Slots are generated from
// StartHour to EndHour inclusive; EndHour itself gets only the ":00" mark
// since it is the closing boundary of the day.
type Window struct {
	StartHour int
	EndHour   int
}

// Slots returns the selectable start-of-slot times for date as ascending
// zero-padded "HH:MM" values at half-hour granularity.
//
// When date is now's calendar date the sequence is trimmed so no slot in the
// past is offered: generation starts at the current hour, advanced by one
// once the clock passes the half-hour mark. Past dates are accepted as-is;
// rejecting them is the validator's job.
func Slots(date string, now time.Time, w Window) []string {
	day, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return nil
	}

	startHour := w.StartHour
	if sameDay(day, now) {
		startHour = now.Hour()
		if now.Minute() >= 30 {
			startHour++
		}
		if startHour < w.StartHour {
			startHour = w.StartHour
		}
	}

	if startHour > w.EndHour {
		return nil
	}

	slots := make([]string, 0, 2*(w.EndHour-startHour)+1)
	for hour := startHour; hour <= w.EndHour; hour++ {
		slots = append(slots, FormatMinuteOfDay(hour*60))
		if hour != w.EndHour {
			slots = append(slots, FormatMinuteOfDay(hour*60+30))
		}
	}
	return slots
}

// After filters slots down to values strictly later than the chosen start
// time, which is what the end-time selection needs. An unparsable start
// returns the sequence unchanged.
func After(slots []string, start string) []string {
	min, err := MinuteOfDay(start)
	if err != nil {
		return slots
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		m, err := MinuteOfDay(s)
		if err != nil {
			continue
		}
		if m > min {
			out = append(out, s)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
