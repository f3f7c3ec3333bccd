package sales

import (
	"sort"
	"time"

	"arsys/backend/internal/models"
)

// Query selects what the report covers. Zero values mean "all users",
// "all dates", day mode.
type Query struct {
	User string
	Date string
	Mode string
}

// ProfileGroup represents profile group.
type ProfileGroup struct {
	Profile string `json:"profile"`
	Sales   []Sale `json:"sales"`
}

// UserGroup represents user group.
type UserGroup struct {
	User     string         `json:"user"`
	Count    int            `json:"count"`
	Trend    *Trend         `json:"trend,omitempty"`
	Profiles []ProfileGroup `json:"profiles"`
}

// PeriodGroup represents period group.
type PeriodGroup struct {
	Period string      `json:"period"`
	Users  []UserGroup `json:"users"`
}

// Report represents report.
type Report struct {
	Mode       string        `json:"mode"`
	TotalSales int           `json:"totalSales"`
	Periods    []PeriodGroup `json:"periods"`
}

// BuildReport runs the whole pipeline: extract, filter, group, annotate
// trends, order for presentation. It is a pure function of its inputs;
// the second return value is the count of used-without-timestamp codes
// the extractor dropped.
func BuildReport(tickets []models.FullTicket, q Query, loc *time.Location) (Report, int) {
	if loc == nil {
		loc = time.Local
	}
	mode := q.Mode
	if mode != ModeWeek {
		mode = ModeDay
	}
	user := q.User
	if user == "" {
		user = AllUsers
	}

	all, dropped := ExtractSales(tickets, loc)
	filtered := FilterSales(all, user, q.Date, mode)
	grouped := GroupSales(filtered, mode)

	// Trend baselines always come from the unfiltered set.
	counts := CountByUserAndDay(all)

	periods := make([]string, 0, len(grouped))
	for period := range grouped {
		periods = append(periods, period)
	}
	sortPeriodsDesc(periods, mode)

	report := Report{Mode: mode, TotalSales: len(filtered), Periods: make([]PeriodGroup, 0, len(periods))}
	for _, period := range periods {
		byUser := grouped[period]
		userNames := make([]string, 0, len(byUser))
		for name := range byUser {
			userNames = append(userNames, name)
		}
		sort.Strings(userNames)

		pg := PeriodGroup{Period: period, Users: make([]UserGroup, 0, len(userNames))}
		for _, name := range userNames {
			byProfile := byUser[name]
			profileNames := make([]string, 0, len(byProfile))
			for p := range byProfile {
				profileNames = append(profileNames, p)
			}
			sort.Strings(profileNames)

			ug := UserGroup{User: name, Profiles: make([]ProfileGroup, 0, len(profileNames))}
			for _, p := range profileNames {
				ug.Count += len(byProfile[p])
				ug.Profiles = append(ug.Profiles, ProfileGroup{Profile: p, Sales: byProfile[p]})
			}
			if mode == ModeDay {
				trend := ComputeTrend(name, period, counts, loc)
				ug.Trend = &trend
			}
			pg.Users = append(pg.Users, ug)
		}
		report.Periods = append(report.Periods, pg)
	}
	return report, dropped
}

// sortPeriodsDesc orders periods newest first: plain string order for
// day keys, (year, week) tuple order for week keys.
func sortPeriodsDesc(periods []string, mode string) {
	if mode == ModeWeek {
		sort.Slice(periods, func(i, j int) bool {
			yi, wi, oki := parseWeekKey(periods[i])
			yj, wj, okj := parseWeekKey(periods[j])
			if !oki || !okj {
				return periods[i] > periods[j]
			}
			if yi != yj {
				return yi > yj
			}
			return wi > wj
		})
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
}
