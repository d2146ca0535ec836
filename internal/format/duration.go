package format

import (
	"fmt"
	"time"
)

// Uptime renders a duration the way people read process uptime:
// "45s", "12m 3s", "4h 12m", "3d 4h". Sub-second values round to "0s".
func Uptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	seconds := int(d/time.Second) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Until says how far away t is from now in chat-friendly words:
// "today", "tomorrow", "in 3 days", "2 days ago". Fixture lists read
// better with this next to the kickoff timestamp.
func Until(t, now time.Time) string {
	days := daysBetween(now, t)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	default:
		return fmt.Sprintf("%d days ago", -days)
	}
}

// daysBetween counts calendar-day boundaries between a and b in a's
// location, so a 23:00 fixture the next morning still reads "tomorrow".
func daysBetween(a, b time.Time) int {
	loc := a.Location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	astart := time.Date(ay, am, ad, 0, 0, 0, 0, loc)
	bstart := time.Date(by, bm, bd, 0, 0, 0, 0, loc)
	return int(bstart.Sub(astart) / (24 * time.Hour))
}
