package analytics

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Period is an inclusive date window in 'YYYY-MM-DD' form.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// parsePeriod resolves a period keyword or 'YYYY-MM' month into dates.
// Unrecognized input falls back to the current month.
func parsePeriod(period string, today time.Time) Period {
	switch period {
	case "last_month":
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := firstOfThis.AddDate(0, 0, -1)
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
	case "last_30_days":
		return Period{
			Start: today.AddDate(0, 0, -30).Format(dateLayout),
			End:   today.Format(dateLayout),
		}
	case "this_month", "":
		return monthPeriod(today.Year(), today.Month())
	default:
		var year, month int
		if _, err := fmt.Sscanf(period, "%d-%d", &year, &month); err == nil && month >= 1 && month <= 12 {
			return monthPeriod(year, time.Month(month))
		}
		return monthPeriod(today.Year(), today.Month())
	}
}

func monthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
}

// monthBounds returns the first and last day of a month as time values.
func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
