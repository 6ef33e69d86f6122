package scheduler

import (
	"time"

	"github.com/maes-platform/compliance-core/internal/store"
)

// runHour is the UTC hour all computed run times land on (spec §4.F
// "Open Question #1" resolution: fixed 02:00 UTC, no cron library).
const runHour = 2

// computeNext derives the next fire time for a frequency from a reference
// instant, always landing on runHour UTC (spec §4.F frequency table).
func computeNext(freq store.Frequency, from time.Time) time.Time {
	from = from.UTC()
	switch freq {
	case store.FrequencyDaily:
		return atRunHour(from.AddDate(0, 0, 1))
	case store.FrequencyWeekly:
		daysUntilSunday := (7 - int(from.Weekday())) % 7
		if daysUntilSunday == 0 {
			daysUntilSunday = 7
		}
		return atRunHour(from.AddDate(0, 0, daysUntilSunday))
	case store.FrequencyMonthly:
		firstOfNextMonth := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return atRunHour(firstOfNextMonth)
	case store.FrequencyQuarterly:
		firstOfThreeMonthsAhead := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 3, 0)
		return atRunHour(firstOfThreeMonthsAhead)
	default:
		return atRunHour(from.AddDate(0, 0, 1))
	}
}

func atRunHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), runHour, 0, 0, 0, time.UTC)
}
