package departures

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/aphrx/stopboard/pkg/transit"
)

const DefaultWindowMinutes = 60

// RouteKey identifies a logical service line for display grouping: the
// route short name with the itinerary branch code appended (empty when
// the itinerary has no branch).
type RouteKey string

// ScheduleEntry holds the minutes-until-departure for one RouteKey,
// sorted ascending. Duplicate values are kept - two vehicles can share a
// minute. RealTime runs parallel to Minutes and marks departures backed
// by a live prediction rather than the timetable. The long name and mode
// come from the first event that supplied a non-empty value.
type ScheduleEntry struct {
	Minutes       []int  `json:"minutes"`
	RealTime      []bool `json:"real_time,omitempty"`
	RouteLongName string `json:"route_long_name,omitempty"`
	ModeName      string `json:"mode_name,omitempty"`
}

// Schedule maps RouteKey to its upcoming departures within the window.
// Iteration order is not meaningful - consumers sort for display.
type Schedule map[RouteKey]*ScheduleEntry

// Aggregate fetches the raw departures for a resolved stop and builds the
// windowed schedule. An upstream failure is returned as an error, which
// is distinct from a stop that genuinely has nothing departing in the
// window (an empty, non-nil Schedule).
func Aggregate(ctx context.Context, client *transit.Client, stop *transit.Stop, now time.Time, windowMinutes int) (Schedule, error) {
	routes, err := client.StopDepartures(ctx, stop.GlobalStopID)
	if err != nil {
		return nil, err
	}

	return Build(routes, now, windowMinutes), nil
}

// Build groups raw route departures into a Schedule. Pure - no I/O.
//
// An event is kept iff 0 <= minutesUntil < windowMinutes. The interval is
// half-open: a departure due this minute counts, one exactly at the
// window boundary does not.
func Build(routes []transit.RouteDeparture, now time.Time, windowMinutes int) Schedule {
	schedule := Schedule{}
	times := map[RouteKey][]departureTime{}

	for _, route := range routes {
		for _, itinerary := range route.Itineraries {
			key := RouteKey(route.RouteShortName + itinerary.BranchCode)

			for _, item := range itinerary.ScheduleItems {
				departure := time.Unix(item.DepartureTime, 0)
				minutesUntil := minutesBetween(now, departure)

				if minutesUntil < 0 || minutesUntil >= windowMinutes {
					continue
				}

				entry := schedule[key]
				if entry == nil {
					entry = &ScheduleEntry{}
					schedule[key] = entry
				}

				// First non-empty value wins, later events never overwrite.
				if entry.RouteLongName == "" {
					entry.RouteLongName = longName(route, itinerary)
				}
				if entry.ModeName == "" {
					entry.ModeName = route.ModeName
				}

				times[key] = append(times[key], departureTime{
					minutes:  minutesUntil,
					realTime: item.IsRealTime,
				})
			}
		}
	}

	for key, entry := range schedule {
		keyTimes := times[key]

		sort.Slice(keyTimes, func(i, j int) bool {
			if keyTimes[i].minutes != keyTimes[j].minutes {
				return keyTimes[i].minutes < keyTimes[j].minutes
			}
			// Vehicles sharing a minute: live predictions first, so the
			// ordering does not depend on input order.
			return keyTimes[i].realTime && !keyTimes[j].realTime
		})

		entry.Minutes = make([]int, len(keyTimes))
		entry.RealTime = make([]bool, len(keyTimes))
		for i, departure := range keyTimes {
			entry.Minutes[i] = departure.minutes
			entry.RealTime[i] = departure.realTime
		}
	}

	return schedule
}

// departureTime keeps a windowed minutes value paired with its live
// prediction flag until both land in the ScheduleEntry in sorted order.
type departureTime struct {
	minutes  int
	realTime bool
}

// minutesBetween rounds to the nearest whole minute, ties away from zero.
func minutesBetween(now time.Time, departure time.Time) int {
	return int(math.Round(departure.Sub(now).Minutes()))
}

// longName resolves the display name for a route group: explicit route
// long name, then the itinerary destination, then its headsign. Resolved
// once per RouteKey from the first in-window event and never overwritten.
func longName(route transit.RouteDeparture, itinerary transit.Itinerary) string {
	if route.RouteLongName != "" {
		return route.RouteLongName
	}
	if itinerary.Destination != "" {
		return itinerary.Destination
	}
	if itinerary.Headsign != "" {
		return itinerary.Headsign
	}
	return ""
}
