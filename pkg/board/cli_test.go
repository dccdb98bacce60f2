package board

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aphrx/stopboard/pkg/departures"
	"github.com/aphrx/stopboard/pkg/transit"
)

func TestRenderBoard(t *testing.T) {
	snapshot := &Snapshot{
		Stop: &transit.Stop{
			GlobalStopID: "TTC:7581",
			StopName:     "Bathurst St at Vaughan Rd",
			StopCode:     "7581",
		},
		Schedule: departures.Schedule{
			"7": {
				Minutes:       []int{0, 9, 22},
				RealTime:      []bool{true, false, false},
				RouteLongName: "Bathurst",
			},
			"90": {
				Minutes:       []int{14},
				RealTime:      []bool{false},
				RouteLongName: "Vaughan",
			},
		},
		FetchedAt: time.Date(2024, 5, 14, 12, 0, 30, 0, time.UTC),
	}

	var out strings.Builder
	render(&out, snapshot, nil)
	board := out.String()

	for _, want := range []string{
		"Next services at Bathurst St at Vaughan Rd (Stop 7581)",
		"Bathurst",
		"Due*",
		"9 min",
		"14 min",
		"ID TTC:7581",
		"Updated 12:00:30",
	} {
		if !strings.Contains(board, want) {
			t.Errorf("board output missing %q:\n%s", want, board)
		}
	}

	// The schedule-only row carries no live marker.
	if strings.Contains(board, "14 min*") {
		t.Errorf("schedule-only row marked as live:\n%s", board)
	}
}

func TestRenderBeforeFirstCycle(t *testing.T) {
	var out strings.Builder
	render(&out, nil, nil)

	if !strings.Contains(out.String(), "Loading") {
		t.Errorf("expected loading state, got:\n%s", out.String())
	}
}

func TestRenderErrorState(t *testing.T) {
	var out strings.Builder
	render(&out, nil, errors.New("no matching stop found"))

	if !strings.Contains(out.String(), "no matching stop found") {
		t.Errorf("expected error message, got:\n%s", out.String())
	}
}

func TestRenderEmptySchedule(t *testing.T) {
	snapshot := &Snapshot{
		Stop:     &transit.Stop{GlobalStopID: "TTC:7581", StopName: "Bathurst St at Vaughan Rd", StopCode: "7581"},
		Schedule: departures.Schedule{},
	}

	var out strings.Builder
	render(&out, snapshot, nil)

	if !strings.Contains(out.String(), "No upcoming departures") {
		t.Errorf("expected empty-board message, got:\n%s", out.String())
	}
}
