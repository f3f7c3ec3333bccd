package sales

import (
	"fmt"
	"math"
	"time"
)

const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
	TrendNone = "none"
)

// Trend classifies a user's day-over-day sale count change. This is a
// heuristic signal, not an accounting figure.
type Trend struct {
	Label     string `json:"label"`
	Direction string `json:"direction"`
}

// ComputeTrend compares the user's sale count on dayKey against the
// immediately preceding calendar day. counts must come from
// CountByUserAndDay over the unfiltered sale set.
func ComputeTrend(user, dayKey string, counts map[string]map[string]int, loc *time.Location) Trend {
	today := counts[user][dayKey]
	yesterday := 0
	if prev, err := PrevDayKey(dayKey, loc); err == nil {
		yesterday = counts[user][prev]
	}

	switch {
	case yesterday == 0 && today > 0:
		// No prior baseline to compare against.
		return Trend{Label: "new", Direction: TrendUp}
	case yesterday > 0:
		pct := int(math.Round(float64(today-yesterday) / float64(yesterday) * 100))
		switch {
		case pct > 0:
			return Trend{Label: fmt.Sprintf("+%d%% vs yesterday", pct), Direction: TrendUp}
		case pct < 0:
			return Trend{Label: fmt.Sprintf("%d%% vs yesterday", pct), Direction: TrendDown}
		default:
			return Trend{Label: "no change", Direction: TrendFlat}
		}
	default:
		// No data either day; callers should suppress display.
		return Trend{Label: "–", Direction: TrendNone}
	}
}
