package departures

import (
	"fmt"
	"sort"
)

const (
	// maxStackedTimes bounds the trailing list of upcoming times shown
	// after the primary one. Anything beyond is dropped from display only,
	// never from the Schedule itself.
	maxStackedTimes = 3

	// emptySortSentinel pushes groups with no minutes to the end of the
	// board. Should not occur for a Schedule built by Build, but the sort
	// must not panic on one.
	emptySortSentinel = 9999
)

// PlaceholderLabel is shown when a row has no time at all.
const PlaceholderLabel = "--"

// DisplayRow is one line of the departure board: the soonest time for a
// route plus a bounded stack of the following ones.
type DisplayRow struct {
	Route         RouteKey
	RouteLongName string
	ModeName      string

	Primary     int
	RealTime    bool
	Stack       []int
	Label       string
	StackLabels []string
}

// Format turns a Schedule into board rows ordered by imminence. Pure - the
// input Schedule is not modified.
func Format(schedule Schedule) []DisplayRow {
	keys := make([]RouteKey, 0, len(schedule))
	for key := range schedule {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		a := firstMinute(schedule[keys[i]])
		b := firstMinute(schedule[keys[j]])
		if a == b {
			return keys[i] < keys[j]
		}
		return a < b
	})

	rows := make([]DisplayRow, 0, len(keys))
	for _, key := range keys {
		entry := schedule[key]

		row := DisplayRow{
			Route:         key,
			RouteLongName: entry.RouteLongName,
			ModeName:      entry.ModeName,
			Label:         PlaceholderLabel,
		}

		if len(entry.Minutes) > 0 {
			row.Primary = entry.Minutes[0]
			row.Label = FormatMinutes(entry.Minutes[0])
			if len(entry.RealTime) > 0 {
				row.RealTime = entry.RealTime[0]
			}

			stack := entry.Minutes[1:]
			if len(stack) > maxStackedTimes {
				stack = stack[:maxStackedTimes]
			}
			for _, minutes := range stack {
				row.Stack = append(row.Stack, minutes)
				row.StackLabels = append(row.StackLabels, FormatMinutes(minutes))
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// FormatMinutes renders a minutes-until value as the board label.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "Due"
	}
	return fmt.Sprintf("%d min", minutes)
}

func firstMinute(entry *ScheduleEntry) int {
	if entry == nil || len(entry.Minutes) == 0 {
		return emptySortSentinel
	}
	return entry.Minutes[0]
}
