// Package jalali provides Jalali (Solar Hijri) calendar conversions used for
// Iranian market dates. Upstream providers emit dates as "YYYY/MM/DD" in the
// Jalali calendar.
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Layout is the wire format used by upstream providers.
const Layout = "2006/01/02"

var tehran = mustLoadTehran()

func mustLoadTehran() *time.Location {
	loc, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		// Fixed offset fallback when tzdata is unavailable
		return time.FixedZone("IRST", int(3*time.Hour+30*time.Minute)/int(time.Second))
	}
	return loc
}

// Parse converts a Jalali "YYYY/MM/DD" string into a Gregorian time at
// midnight Tehran time.
func Parse(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid jalali date %q: expected YYYY/MM/DD", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid jalali year in %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid jalali month in %q: %w", s, err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid jalali day in %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("jalali month out of range in %q", s)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("jalali day out of range in %q", s)
	}
	pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, tehran)
	// ptime normalizes out-of-range days (e.g. Esfand 30 in a non-leap year)
	// instead of rejecting them, so round-trip to detect invalid dates.
	if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
		return time.Time{}, fmt.Errorf("invalid jalali date %q", s)
	}
	return pt.Time(), nil
}

// Format renders a Gregorian time as a Jalali "YYYY/MM/DD" string in Tehran
// time.
func Format(t time.Time) string {
	pt := ptime.New(t.In(tehran))
	return fmt.Sprintf("%04d/%02d/%02d", pt.Year(), int(pt.Month()), pt.Day())
}

// Today returns the current Jalali date string in Tehran time.
func Today() string {
	return Format(time.Now())
}

// WithinDays reports whether the Jalali date s falls within the last n days
// ending at ref (inclusive). Unparseable dates report false.
func WithinDays(s string, ref time.Time, n int) bool {
	t, err := Parse(s)
	if err != nil {
		return false
	}
	cutoff := ref.AddDate(0, 0, -n)
	return !t.Before(cutoff) && !t.After(ref)
}
