package capture

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/veriface/internal/centering"
	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
	"github.com/saturnino-fabrica-de-software/veriface/internal/observation"
)

// State of one capture session.
type State string

const (
	StateIdle        State = "idle"
	StateDetecting   State = "detecting"
	StateStabilizing State = "stabilizing"
	StateCapturing   State = "capturing"
	StateCaptured    State = "captured"
	StateCancelled   State = "cancelled"
	StateFailed      State = "failed"
)

// terminal reports whether no further transition may happen.
func (s State) terminal() bool {
	return s == StateCaptured || s == StateCancelled || s == StateFailed
}

// Result is the single capture event a session can emit.
type Result struct {
	FaceDetected  bool
	FaceID        string
	FaceEmbedding []float64
	FaceFeatures  []float64
	ImagePath     string
	Observation   *observation.FaceObservation
	FrameWidth    int
	FrameHeight   int
}

// Status is a progress update pushed to the status callback while the
// session runs, carrying the guidance text for the UI.
type Status struct {
	State    State
	Centered bool
	Guidance string
}

// Session is the ephemeral state of one detect-to-capture cycle. Created on
// screen focus, destroyed on blur; a finished session cannot be reused.
type Session struct {
	ID uuid.UUID

	mu       sync.Mutex
	state    State
	captured bool // one-shot: blocks any re-entry into StateCapturing
	settle   *time.Timer
	tracker  *centering.Tracker

	// candidate frame selected while stabilizing
	candidate      *observation.FaceObservation
	candidatePath  string
	frameW, frameH int

	results chan Result
	done    chan struct{}
	err     error
}

func newSession() *Session {
	return &Session{
		ID:      uuid.New(),
		state:   StateIdle,
		tracker: centering.NewTracker(),
		results: make(chan Result, 1),
		done:    make(chan struct{}),
	}
}

// Results delivers at most one capture event.
func (s *Session) Results() <-chan Result {
	return s.results
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure cause after StateFailed, nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Await blocks until the session emits its capture or terminates. A session
// that finished without capturing reports its failure cause after
// StateFailed, or domain.ErrSessionFinished when it was cancelled.
func (s *Session) Await(ctx context.Context) (Result, error) {
	select {
	case result := <-s.results:
		return result, nil
	case <-s.done:
		// the result may have been queued right before done closed
		select {
		case result := <-s.results:
			return result, nil
		default:
		}
		if err := s.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, domain.ErrSessionFinished
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel moves the session to StateCancelled and stops all pending timers.
// Detection or capture callbacks still in flight notice the terminal state
// and discard their results. Safe to call repeatedly.
func (s *Session) Cancel() {
	s.finish(StateCancelled, nil)
}

// finish transitions to a terminal state once. Later calls are no-ops.
func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.terminal() {
		return
	}
	s.state = state
	s.err = err
	s.stopSettleLocked()
	close(s.done)
}

// stopSettleLocked clears a pending settle timer. Caller holds s.mu.
func (s *Session) stopSettleLocked() {
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

// backToDetecting drops any stabilizing progress. Used for non-centered
// observations and transient sensor errors.
func (s *Session) backToDetecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.terminal() || s.state == StateCapturing {
		return
	}
	s.stopSettleLocked()
	s.tracker.Reset()
	s.candidate = nil
	s.candidatePath = ""
	s.state = StateDetecting
}
