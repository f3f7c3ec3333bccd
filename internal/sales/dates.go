package sales

import (
	"fmt"
	"time"
)

// DayKey formats t's calendar date, in t's own location, as YYYY-MM-DD.
func DayKey(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// ParseDayKey inverts DayKey by decomposing the string directly. Feeding
// the key through a generic parser would pin it to UTC and shift the day
// near midnight for every other zone.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var year, month, day int
	if _, err := fmt.Sscanf(key, "%d-%d-%d", &year, &month, &day); err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q", key)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day key %q", key)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// PrevDayKey returns the key exactly one calendar day earlier, using
// local-date arithmetic.
func PrevDayKey(key string, loc *time.Location) (string, error) {
	t, err := ParseDayKey(key, loc)
	if err != nil {
		return "", err
	}
	return DayKey(t.AddDate(0, 0, -1)), nil
}

// WeekKey buckets t by ISO-8601 week. A week belongs to the year
// containing its Thursday, so the year part can differ from t's own.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%d", year, week)
}

// parseWeekKey recovers the (year, week) pair for ordering week keys;
// string order is wrong once weeks cross the 9/10 boundary.
func parseWeekKey(key string) (int, int, bool) {
	var year, week int
	if _, err := fmt.Sscanf(key, "%d-W%d", &year, &week); err != nil {
		return 0, 0, false
	}
	return year, week, true
}
