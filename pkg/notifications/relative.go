package notifications

import (
	"fmt"
	"time"
)

// RelativeTime renders the age of t at now as a short Portuguese label:
// "agora", "há 5 min", "há 2 h", "há 1 dia", "há 3 dias". Anything older
// than 30 days is shown as a date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		return fmt.Sprintf("há %d min", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("há %d h", int(d/time.Hour))
	case d < 30*24*time.Hour:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "há 1 dia"
		}
		return fmt.Sprintf("há %d dias", days)
	default:
		return t.In(now.Location()).Format("02/01/2006")
	}
}
