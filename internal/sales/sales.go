package sales

import (
	"time"

	"arsys/backend/internal/models"
)

// AllUsers disables the user filter.
const AllUsers = "all"

const (
	ModeDay  = "day"
	ModeWeek = "week"
)

// Sale is one redemption event: a single code marked used at a known
// instant, attributed to the owning (user, profile) pair.
type Sale struct {
	User    string    `json:"user"`
	Profile string    `json:"profile"`
	UsedAt  time.Time `json:"usedAt"`
	Code    string    `json:"code"`
}

// ExtractSales flattens tickets into one Sale per redeemed code. Unused
// codes contribute nothing. Codes marked used without a usable timestamp
// contribute nothing either; the second return value counts those so the
// caller can surface the data gap.
func ExtractSales(tickets []models.FullTicket, loc *time.Location) ([]Sale, int) {
	if loc == nil {
		loc = time.Local
	}
	sales := make([]Sale, 0)
	dropped := 0
	for _, ft := range tickets {
		for _, code := range ft.Ticket.Codes {
			if !code.Used {
				continue
			}
			if code.UsedAt == nil || code.UsedAt.IsZero() {
				dropped++
				continue
			}
			sales = append(sales, Sale{
				User:    ft.User,
				Profile: ft.Profile,
				UsedAt:  code.UsedAt.Time().In(loc),
				Code:    code.Value,
			})
		}
	}
	return sales, dropped
}

// FilterSales narrows sales by user and, in day mode, by day key. An
// empty date keeps every day. Week mode ignores the date entirely.
// The input slice is never mutated.
func FilterSales(sales []Sale, selectedUser, selectedDate, mode string) []Sale {
	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if selectedUser != AllUsers && s.User != selectedUser {
			continue
		}
		if mode == ModeDay && selectedDate != "" && DayKey(s.UsedAt) != selectedDate {
			continue
		}
		out = append(out, s)
	}
	return out
}

// GroupSales partitions sales into period -> user -> profile buckets.
// Every sale lands in exactly one bucket.
func GroupSales(sales []Sale, mode string) map[string]map[string]map[string][]Sale {
	grouped := make(map[string]map[string]map[string][]Sale)
	for _, s := range sales {
		period := DayKey(s.UsedAt)
		if mode == ModeWeek {
			period = WeekKey(s.UsedAt)
		}
		byUser, ok := grouped[period]
		if !ok {
			byUser = make(map[string]map[string][]Sale)
			grouped[period] = byUser
		}
		byProfile, ok := byUser[s.User]
		if !ok {
			byProfile = make(map[string][]Sale)
			byUser[s.User] = byProfile
		}
		byProfile[s.Profile] = append(byProfile[s.Profile], s)
	}
	return grouped
}

// CountByUserAndDay tallies sales per user per local day. Trend inputs
// are built from the unfiltered sale set through this, so the comparison
// baseline is not skewed by the caller's filter selection.
func CountByUserAndDay(sales []Sale) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, s := range sales {
		day := DayKey(s.UsedAt)
		if counts[s.User] == nil {
			counts[s.User] = make(map[string]int)
		}
		counts[s.User][day]++
	}
	return counts
}
