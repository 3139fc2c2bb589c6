package stats

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts used for displayed timestamps.
const (
	DatetimeLayout = "Mon Jan 2 15:04:05 2006"
	TimeLayout     = "15:04:05.000"
)

// HumanizeDuration formats d as 1h02m03s, 2m05s or 0.512s. With millis the
// seconds always carry three decimals, as in 1m05.250s.
func HumanizeDuration(d time.Duration, withMillis bool) string {
	var sb strings.Builder

	secs := d.Seconds()

	if secs/3600 >= 1 {
		fmt.Fprintf(&sb, "%dh", int64(secs/3600))
		secs = math.Mod(secs, 3600)
	}

	if secs/60 >= 1 {
		if sb.Len() > 0 {
			fmt.Fprintf(&sb, "%02dm", int64(secs/60))
		} else {
			fmt.Fprintf(&sb, "%dm", int64(secs/60))
		}

		secs = math.Mod(secs, 60)
	}

	if withMillis {
		if secs >= 0 {
			if sb.Len() > 0 {
				fmt.Fprintf(&sb, "%06.3fs", secs)
			} else {
				fmt.Fprintf(&sb, "%.3fs", secs)
			}
		}

		return sb.String()
	}

	if secs >= 1 {
		if sb.Len() > 0 {
			fmt.Fprintf(&sb, "%02ds", int64(secs))
		} else {
			fmt.Fprintf(&sb, "%ds", int64(secs))
		}
	}

	if sb.Len() == 0 {
		return fmt.Sprintf("%.3fs", secs)
	}

	return sb.String()
}

// HumanizeDatetime formats t in loc as "Sat May 4 22:57:08 2019".
func HumanizeDatetime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DatetimeLayout)
}

// HumanizeTime formats t in loc as "22:57:08.399".
func HumanizeTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(TimeLayout)
}

// Percent returns n out of total as a truncated "NN%" string, "0%" when
// total is zero.
func Percent(n, total int) string {
	if total <= 0 {
		return "0%"
	}

	return fmt.Sprintf("%d%%", n*100/total)
}

func durationPercent(d, total time.Duration) string {
	if total <= 0 {
		return "0%"
	}

	return fmt.Sprintf("%d%%", int64(d*100/total))
}
