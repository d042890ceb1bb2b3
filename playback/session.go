package playback

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/voidlabs/narrator/narrate"
)

// NarrationSource produces a narration for a prompt. Implemented by
// narrate.Client; tests supply fakes.
type NarrationSource interface {
	Narrate(ctx context.Context, message string) (*narrate.Response, error)
}

// SessionConfig tunes the lifecycle controller.
type SessionConfig struct {
	// ErrorClearDelay is how long a user-visible error stays on screen.
	ErrorClearDelay time.Duration
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{ErrorClearDelay: 4 * time.Second}
}

// Session manages one logical "submit, narrate, play out" cycle at a time.
// Starting a new cycle synchronously invalidates the previous one before
// any await point; the cycle's uuid is the cancellation token that stale
// callbacks are checked against before every shared-state mutation, so a
// superseded cycle can never tear visible state.
type Session struct {
	source NarrationSource
	seq    *Sequencer
	cfg    SessionConfig
	logger *log.Logger

	mu      sync.Mutex
	machine *StateMachine
	cycleID uuid.UUID
	cancel  context.CancelFunc
	runDone chan struct{}

	onState        func(State)
	onClear        func()
	onError        func(message string)
	onErrorCleared func()
	onComplete     func()
	onSegment      func(SegmentStart)
	onHighlight    func(segment, word int)
}

// NewSession creates a lifecycle controller around a narration source and a
// sequencer.
func NewSession(source NarrationSource, seq *Sequencer, cfg SessionConfig, logger *log.Logger) *Session {
	if cfg.ErrorClearDelay <= 0 {
		cfg.ErrorClearDelay = DefaultSessionConfig().ErrorClearDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		source:  source,
		seq:     seq,
		cfg:     cfg,
		logger:  logger,
		machine: NewStateMachine(),
	}
}

// OnStateChange registers a callback for lifecycle state changes.
func (s *Session) OnStateChange(fn func(State)) { s.onState = fn }

// OnClear registers a callback fired when residual narration must be
// cleared for a new cycle.
func (s *Session) OnClear(fn func()) { s.onClear = fn }

// OnError registers a callback for user-visible failures.
func (s *Session) OnError(fn func(message string)) { s.onError = fn }

// OnErrorCleared registers a callback fired when an error message expires.
func (s *Session) OnErrorCleared(fn func()) { s.onErrorCleared = fn }

// OnComplete registers a callback fired after a sequence finishes
// naturally, ahead of the idle transition. The exit animation hangs off
// this event.
func (s *Session) OnComplete(fn func()) { s.onComplete = fn }

// OnSegment registers a callback fired as each segment begins.
func (s *Session) OnSegment(fn func(SegmentStart)) { s.onSegment = fn }

// OnHighlight registers a callback fired on every word highlight advance.
func (s *Session) OnHighlight(fn func(segment, word int)) { s.onHighlight = fn }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Submit starts a new cycle. Any in-flight cycle is canceled before this
// returns: the network call is aborted and the sequencer observes
// cancellation at its next segment boundary. Cancel-and-replace, the
// newest submission always wins.
func (s *Session) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		// A finished cycle already returned to idle; only an in-flight
		// one is superseded.
		if s.machine.Current() != StateIdle {
			s.machine.Transition(StateCanceled)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	id := uuid.New()
	s.cycleID = id
	s.machine.Transition(StateSubmitting)
	prev := s.runDone
	done := make(chan struct{})
	s.runDone = done
	s.mu.Unlock()

	s.logger.Debug("cycle started", "cycle", id, "prompt_len", len(text))
	s.emitClear()
	s.emitState(StateSubmitting)

	go s.run(ctx, id, text, prev, done)
	return nil
}

// Shutdown cancels any in-flight cycle.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) run(ctx context.Context, id uuid.UUID, text string, prev <-chan struct{}, done chan struct{}) {
	defer close(done)

	resp, err := s.source.Narrate(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded mid-request: not an error, suppressed silently.
			return
		}
		s.logger.Error("narrate request failed", "cycle", id, "err", err)
		s.fail(id, "The narrator is unreachable. Try again.")
		return
	}
	if resp == nil || len(resp.Segments) == 0 {
		s.logger.Warn("narration was empty", "cycle", id)
		s.fail(id, "The narrator had nothing to say.")
		return
	}

	// The player is a single serially-reused resource: wait for the
	// superseded cycle to finish tearing down before touching it. The
	// canceled run exits at its next segment boundary, so this wait is
	// short.
	if prev != nil {
		<-prev
	}
	if ctx.Err() != nil {
		return
	}

	if !s.advance(id, StatePlaying) {
		return
	}

	// Events are guarded per cycle: once superseded, nothing from this
	// run reaches the view.
	ev := SegmentEvents{
		Segment: func(st SegmentStart) {
			if s.currentCycle(id) && s.onSegment != nil {
				s.onSegment(st)
			}
		},
		Highlight: func(segment, word int) {
			if s.currentCycle(id) && s.onHighlight != nil {
				s.onHighlight(segment, word)
			}
		},
	}

	if err := s.seq.Run(ctx, resp.Segments, ev); err != nil {
		// Only cancellation reaches here; the sequencer swallows
		// segment-level failures.
		return
	}

	if !s.currentCycle(id) {
		return
	}
	if s.onComplete != nil {
		s.onComplete()
	}
	s.advance(id, StateIdle)
}

// fail surfaces a user-visible error, returns to idle and schedules the
// auto-clear. All failure paths share this rendering path.
func (s *Session) fail(id uuid.UUID, message string) {
	if !s.currentCycle(id) {
		return
	}
	if s.onError != nil {
		s.onError(message)
	}
	s.advance(id, StateIdle)

	time.AfterFunc(s.cfg.ErrorClearDelay, func() {
		// A newer cycle owns the screen now; leaving its content alone.
		if !s.currentCycle(id) {
			return
		}
		if s.onErrorCleared != nil {
			s.onErrorCleared()
		}
	})
}

// advance transitions the state machine if and only if id is still the
// active cycle.
func (s *Session) advance(id uuid.UUID, to State) bool {
	s.mu.Lock()
	if s.cycleID != id {
		s.mu.Unlock()
		return false
	}
	ok := s.machine.Transition(to)
	s.mu.Unlock()

	if ok {
		s.emitState(to)
	}
	return ok
}

// currentCycle reports whether id is still the authoritative cycle.
func (s *Session) currentCycle(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycleID == id
}

func (s *Session) emitState(st State) {
	if s.onState != nil {
		s.onState(st)
	}
}

func (s *Session) emitClear() {
	if s.onClear != nil {
		s.onClear()
	}
}
