package board

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aphrx/stopboard/pkg/departures"
	"github.com/aphrx/stopboard/pkg/transit"
)

func snapshotFor(code string) (*transit.Stop, departures.Schedule) {
	return &transit.Stop{GlobalStopID: "TTC:" + code, StopCode: code},
		departures.Schedule{"504A": {Minutes: []int{5}}}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestOvertakenCycleResultDiscarded(t *testing.T) {
	release := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}

	var calls int32
	session := &Session{
		StopNumber: "7581",
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			call := int(atomic.AddInt32(&calls, 1))
			<-release[call]

			stop := &transit.Stop{GlobalStopID: "TTC:7581"}
			return stop, departures.Schedule{"64": {Minutes: []int{call}}}, nil
		},
		stopped: make(chan struct{}),
	}

	ctx := context.Background()

	// Cycle 1 is in flight when cycle 2 is issued; cycle 2 completes first.
	session.issueCycle(ctx)
	session.issueCycle(ctx)

	close(release[2])
	waitFor(t, func() bool {
		snapshot, _ := session.Current()
		return snapshot != nil
	})

	// The overtaken cycle 1 now completes. Its result must be dropped.
	close(release[1])
	time.Sleep(100 * time.Millisecond)

	snapshot, err := session.Current()
	if err != nil {
		t.Fatalf("unexpected error state: %v", err)
	}
	if got := snapshot.Schedule["64"].Minutes[0]; got != 2 {
		t.Errorf("displayed schedule is from cycle %d, want cycle 2", got)
	}
}

func TestNoMutationAfterTeardown(t *testing.T) {
	release := make(chan struct{})

	var updates int32
	session := &Session{
		StopNumber: "7581",
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			<-release
			stop, schedule := snapshotFor("7581")
			return stop, schedule, nil
		},
		stopped: make(chan struct{}),
	}
	session.OnUpdate = func() {
		atomic.AddInt32(&updates, 1)
	}

	session.issueCycle(context.Background())
	session.Close()

	close(release)
	time.Sleep(100 * time.Millisecond)

	snapshot, _ := session.Current()
	if snapshot != nil {
		t.Error("snapshot applied after teardown")
	}
	if atomic.LoadInt32(&updates) != 0 {
		t.Error("OnUpdate fired after teardown")
	}
}

func TestCloseWaitsForInFlightUpdateCallback(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var fired int32
	session := &Session{
		StopNumber: "7581",
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			stop, schedule := snapshotFor("7581")
			return stop, schedule, nil
		},
		stopped: make(chan struct{}),
	}
	session.OnUpdate = func() {
		if atomic.AddInt32(&fired, 1) == 1 {
			close(entered)
			<-release
		}
	}

	session.issueCycle(context.Background())
	<-entered

	// Teardown races the callback: Close must block until it finishes.
	closeDone := make(chan struct{})
	go func() {
		session.Close()
		close(closeDone)
	}()

	select {
	case <-closeDone:
		t.Fatal("Close returned while the update callback was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-closeDone

	// Once Close has returned nothing may redraw the display.
	session.issueCycle(context.Background())
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("OnUpdate fired %d times, want exactly 1", got)
	}
}

func TestErrorStateClearedByLaterSuccess(t *testing.T) {
	var calls int32
	session := &Session{
		StopNumber: "7581",
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, nil, departures.ErrNotFound
			}
			stop, schedule := snapshotFor("7581")
			return stop, schedule, nil
		},
		stopped: make(chan struct{}),
	}

	ctx := context.Background()

	session.issueCycle(ctx)
	waitFor(t, func() bool {
		_, err := session.Current()
		return err != nil
	})

	if snapshot, err := session.Current(); !errors.Is(err, departures.ErrNotFound) || snapshot != nil {
		t.Fatalf("after failed cycle: snapshot=%v err=%v", snapshot, err)
	}

	session.issueCycle(ctx)
	waitFor(t, func() bool {
		snapshot, err := session.Current()
		return snapshot != nil && err == nil
	})
}

func TestRunPollsAndStopsOnCancel(t *testing.T) {
	var calls int32
	session := &Session{
		StopNumber:      "7581",
		RefreshInterval: 20 * time.Millisecond,
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			atomic.AddInt32(&calls, 1)
			stop, schedule := snapshotFor("7581")
			return stop, schedule, nil
		},
		stopped: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		session.Run(ctx)
		close(done)
	}()

	// Cycle 0 fires immediately, then the ticker takes over.
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 3 })

	cancel()
	<-done

	// Let any cycle issued just before cancellation finish.
	time.Sleep(50 * time.Millisecond)

	settled := atomic.LoadInt32(&calls)
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != settled {
		t.Errorf("cycles still being issued after cancel: %d -> %d", settled, got)
	}
}
