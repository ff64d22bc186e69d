package utils

import "time"

// NextMonthStart returns midnight UTC on the first day of the month after t.
func NextMonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
