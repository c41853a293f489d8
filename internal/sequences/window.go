package sequences

import (
	"fmt"
	"time"
)

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// InSendWindow reports whether automated sends are allowed at the
// given instant under these settings: not globally paused, inside the
// configured local-hour window, and not on a skipped weekend.
func InSendWindow(settings Settings, now time.Time) bool {
	if settings.Paused {
		return false
	}

	loc, err := loadLocation(settings.SendTimezone)
	if err != nil {
		// Misconfigured timezone fails closed.
		return false
	}
	local := now.In(loc)

	if settings.SkipWeekends {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	hour := local.Hour()
	return hour >= settings.SendWindowStart && hour < settings.SendWindowEnd
}

// DayKey is the per-sequence per-day counter key for the daily send
// limit, in the sequence's local day.
func DayKey(settings Settings, now time.Time) string {
	loc, err := loadLocation(settings.SendTimezone)
	if err != nil {
		loc = time.UTC
	}
	return fmt.Sprintf("sends:%s:%s", settings.SequenceName, now.In(loc).Format("2006-01-02"))
}

// StartOfDay returns midnight of the current day in the sequence's
// timezone, used to rebuild the daily counter from the send log.
func StartOfDay(settings Settings, now time.Time) time.Time {
	loc, err := loadLocation(settings.SendTimezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
