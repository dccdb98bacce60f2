package board

import (
	"context"
	"sync"
	"time"

	"github.com/aphrx/stopboard/pkg/departures"
	"github.com/aphrx/stopboard/pkg/transit"
	"github.com/rs/zerolog/log"
)

// Snapshot is the aggregation result of one completed refresh cycle.
type Snapshot struct {
	Stop      *transit.Stop
	Schedule  departures.Schedule
	FetchedAt time.Time
}

// FetchFunc performs one resolve+aggregate cycle for a stop number.
type FetchFunc func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error)

// Session drives the polling loop for one live board. Only one cycle is
// issued at a time, but a cycle runs in its own goroutine so a hung
// upstream call never blocks the ticker or teardown.
//
// Stale suppression works on a generation token: every issued cycle
// captures the generation current at issue time, and its result is
// applied only while that generation is still the latest and the session
// has not been torn down. Results therefore land strictly in issue order;
// a cycle overtaken by a newer one is discarded, never merged.
type Session struct {
	StopNumber      string
	RefreshInterval time.Duration
	Fetch           FetchFunc

	// OnUpdate fires after every applied result, snapshot or error. It is
	// serialized with Close, which waits for an in-flight invocation, so
	// OnUpdate must not call Close itself.
	OnUpdate func()

	// updateMutex is held across the OnUpdate invocation and taken by
	// Close, so the callback can never fire once Close has returned.
	updateMutex sync.Mutex

	mutex      sync.Mutex
	generation uint64
	closed     bool
	current    *Snapshot
	lastErr    error

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSession builds a session around the real resolve+aggregate pipeline.
func NewSession(client *transit.Client, stopNumber string, resolver departures.ResolverOptions, windowMinutes int, refreshInterval time.Duration) *Session {
	return &Session{
		StopNumber:      stopNumber,
		RefreshInterval: refreshInterval,
		Fetch: func(ctx context.Context, stopNumber string) (*transit.Stop, departures.Schedule, error) {
			stop, err := departures.Resolve(ctx, client, stopNumber, resolver)
			if err != nil {
				return nil, nil, err
			}

			schedule, err := departures.Aggregate(ctx, client, stop, time.Now(), windowMinutes)
			if err != nil {
				return nil, nil, err
			}

			return stop, schedule, nil
		},
		stopped: make(chan struct{}),
	}
}

// Run polls until the context is cancelled or Close is called. Cycle 0
// fires immediately; after that the ticker fires on a fixed wall-clock
// cadence regardless of how long each cycle takes, so a slow upstream
// response only delays its own result.
func (s *Session) Run(ctx context.Context) {
	log.Info().
		Str("stopnumber", s.StopNumber).
		Dur("refresh", s.RefreshInterval).
		Msg("Starting board refresh session")

	s.issueCycle(ctx)

	ticker := time.NewTicker(s.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			s.issueCycle(ctx)
		}
	}
}

// Close tears the session down: no further cycles start and any in-flight
// cycle's result is discarded when it arrives. Idempotent.
func (s *Session) Close() {
	s.updateMutex.Lock()
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()
	s.updateMutex.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopped)
	})
}

// Current returns the latest applied snapshot and the error state of the
// most recent cycle. The snapshot may be from an earlier cycle than the
// error - a failed cycle leaves the previous board on display.
func (s *Session) Current() (*Snapshot, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.current, s.lastErr
}

func (s *Session) issueCycle(ctx context.Context) {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.generation++
	generation := s.generation
	s.mutex.Unlock()

	go func() {
		stop, schedule, err := s.Fetch(ctx, s.StopNumber)
		s.apply(generation, stop, schedule, err)
	}()
}

func (s *Session) apply(generation uint64, stop *transit.Stop, schedule departures.Schedule, err error) {
	s.updateMutex.Lock()
	defer s.updateMutex.Unlock()

	s.mutex.Lock()

	if s.closed || generation != s.generation {
		s.mutex.Unlock()
		log.Debug().
			Uint64("generation", generation).
			Str("stopnumber", s.StopNumber).
			Msg("Discarding stale refresh cycle result")
		return
	}

	if err != nil {
		s.lastErr = err
	} else {
		s.current = &Snapshot{
			Stop:      stop,
			Schedule:  schedule,
			FetchedAt: time.Now(),
		}
		s.lastErr = nil
	}

	onUpdate := s.OnUpdate
	s.mutex.Unlock()

	if onUpdate != nil {
		onUpdate()
	}
}
