package fuel

import "time"

// DailyAllotment is what daily_fuel is reset to on the first request of a UTC day.
const DailyAllotment = 20

// RefillState says whether a balance row still belongs to today.
type RefillState int

const (
	Fresh RefillState = iota
	Stale
)

func (s RefillState) String() string {
	if s == Stale {
		return "stale"
	}
	return "fresh"
}

// DayOf formats t as the UTC calendar day used for last_refill_date.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// StateOf compares the stored refill day with today.
func StateOf(lastRefillDate, today string) RefillState {
	if lastRefillDate == today {
		return Fresh
	}
	return Stale
}

// Refill resets the daily pool and free ping counter of a stale row.
// Permanent fuel is never touched. Reports whether c changed.
func Refill(c *UserCredits, today string) bool {
	if StateOf(c.LastRefillDate, today) == Fresh {
		return false
	}
	c.DailyFuel = DailyAllotment
	c.PingsToday = 0
	c.LastRefillDate = today
	return true
}
