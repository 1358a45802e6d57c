package scheduler

import "time"

const dateLayout = "2006-01-02"

// Horizon is the ordered, inclusive sequence of calendar days being scheduled
type Horizon []time.Time

// NewHorizon builds every calendar day between start and end inclusive.
// Time of day is ignored. An end before start yields an empty horizon.
func NewHorizon(start, end time.Time) Horizon {
	first := truncateDay(start)
	last := truncateDay(end.In(start.Location()))
	if last.Before(first) {
		return Horizon{}
	}

	var days Horizon
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the horizon
func (h Horizon) Len() int {
	return len(h)
}

// IsWeekend reports whether day i falls on a Saturday or Sunday
func (h Horizon) IsWeekend(i int) bool {
	wd := h[i].Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Keys returns the days formatted as YYYY-MM-DD
func (h Horizon) Keys() []string {
	keys := make([]string, len(h))
	for i, d := range h {
		keys[i] = d.Format(dateLayout)
	}
	return keys
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
