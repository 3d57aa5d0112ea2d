package community

import (
	"fmt"
	"time"
)

var ageUnits = []struct {
	name    string
	seconds float64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// FormatTimeSince renders the age of ts relative to now, e.g. "6 hours ago".
func FormatTimeSince(ts time.Time, now time.Time) string {
	seconds := now.Sub(ts).Seconds()
	if seconds < 0 {
		seconds = 0
	}
	for _, unit := range ageUnits {
		if interval := seconds / unit.seconds; interval > 1 {
			return plural(int(interval), unit.name)
		}
	}
	return plural(int(seconds), "second")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
