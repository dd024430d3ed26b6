package notification

import (
	"fmt"
	"time"
)

// TimeAgo renders a relative label for t; anything older than a week is shown as a date.
func TimeAgo(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	}
	return t.In(now.Location()).Format("02/01/2006 15:04")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
