package playback_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voidlabs/narrator/narrate"
	"github.com/voidlabs/narrator/playback"
)

// fakeSource implements NarrationSource with scripted responses.
type fakeNarrator struct {
	mu        sync.Mutex
	responses []*narrate.Response
	err       error
	delay     time.Duration
	calls     int
}

func (f *fakeNarrator) Narrate(ctx context.Context, message string) (*narrate.Response, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	err := f.err
	delay := f.delay
	var resp *narrate.Response
	if len(f.responses) > 0 {
		resp = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	f.mu.Unlock()
	_ = call

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// sessionHarness wires a session to recorders.
type sessionHarness struct {
	session *playback.Session
	player  *playback.MockPlayer

	mu         sync.Mutex
	states     []playback.State
	highlights [][2]int
	errorsSeen []string
	cleared    int
	completes  int
}

func newSessionHarness(t *testing.T, src playback.NarrationSource, clearDelay time.Duration) *sessionHarness {
	t.Helper()
	player := playback.NewMockPlayer()
	player.SetFixedDuration(2 * time.Second)
	player.SetTimeScale(100) // 2s clips play out in 20ms

	seq := playback.NewSequencer(player, time.Millisecond, nil)
	session := playback.NewSession(src, seq, playback.SessionConfig{ErrorClearDelay: clearDelay}, nil)

	h := &sessionHarness{session: session, player: player}
	session.OnStateChange(func(st playback.State) {
		h.mu.Lock()
		h.states = append(h.states, st)
		h.mu.Unlock()
	})
	session.OnHighlight(func(segment, word int) {
		h.mu.Lock()
		h.highlights = append(h.highlights, [2]int{segment, word})
		h.mu.Unlock()
	})
	session.OnError(func(msg string) {
		h.mu.Lock()
		h.errorsSeen = append(h.errorsSeen, msg)
		h.mu.Unlock()
	})
	session.OnErrorCleared(func() {
		h.mu.Lock()
		h.cleared++
		h.mu.Unlock()
	})
	session.OnComplete(func() {
		h.mu.Lock()
		h.completes++
		h.mu.Unlock()
	})
	return h
}

func (h *sessionHarness) waitForState(t *testing.T, want playback.State, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if h.session.State() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("session never reached %v (at %v)", want, h.session.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func (h *sessionHarness) snapshot() ([][2]int, []string, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][2]int(nil), h.highlights...),
		append([]string(nil), h.errorsSeen...),
		h.cleared, h.completes
}

// TestSessionEndToEnd is the full scenario: one 2.0s four-token segment,
// highlights 0..3 in order, then the idle transition.
func TestSessionEndToEnd(t *testing.T) {
	src := &fakeNarrator{responses: []*narrate.Response{{
		Segments: []narrate.Segment{{
			Text:      "The void stares back.",
			Audio:     wavStub(),
			AudioType: "audio/wav",
		}},
	}}}

	h := newSessionHarness(t, src, time.Second)
	if err := h.session.Submit("Tell me about the void"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	h.waitForState(t, playback.StateIdle, 2*time.Second)

	highlights, errs, _, completes := h.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if completes != 1 {
		t.Fatalf("completion effects fired %d times, want 1", completes)
	}
	if len(highlights) != 4 {
		t.Fatalf("highlights = %v, want four", highlights)
	}
	for i, hl := range highlights {
		if hl != [2]int{0, i} {
			t.Fatalf("highlights = %v, want words 0..3 of segment 0 in order", highlights)
		}
	}
}

// TestSessionCancelAndReplace checks that the newest submission always
// wins: the superseded cycle emits no further effects.
func TestSessionCancelAndReplace(t *testing.T) {
	longClip := &narrate.Response{Segments: []narrate.Segment{
		{Text: "An endless drone.", Audio: wavStub(), AudioType: "audio/wav"},
		{Text: "Never reached.", Audio: wavStub(), AudioType: "audio/wav"},
	}}
	shortClip := &narrate.Response{Segments: []narrate.Segment{
		{Text: "Quick reply.", Audio: wavStub(), AudioType: "audio/wav"},
	}}

	src := &fakeNarrator{responses: []*narrate.Response{longClip, shortClip}}
	h := newSessionHarness(t, src, time.Second)
	h.player.SetTimeScale(0) // manual control: first clip never finishes

	if err := h.session.Submit("first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// Wait for the first cycle to actually start playing.
	deadline := time.After(time.Second)
	for h.player.PlayCalls() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never started playback")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	h.player.SetTimeScale(100)
	if err := h.session.Submit("second"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.waitForState(t, playback.StateIdle, 2*time.Second)

	_, errs, _, completes := h.snapshot()
	if len(errs) != 0 {
		t.Fatalf("cancellation must be silent, got %v", errs)
	}
	if completes != 1 {
		t.Fatalf("completion effects fired %d times, want exactly 1 (new cycle only)", completes)
	}
	// First cycle played its one segment; second cycle played its one.
	// The superseded cycle's second segment must never have started.
	if got := h.player.PlayCalls(); got != 2 {
		t.Errorf("play calls = %d, want 2", got)
	}
}

// TestSessionResubmitAfterCompletion runs two full cycles back to back.
// A finished cycle is followed, not superseded: the lifecycle never
// passes through canceled between them.
func TestSessionResubmitAfterCompletion(t *testing.T) {
	src := &fakeNarrator{responses: []*narrate.Response{{
		Segments: []narrate.Segment{{
			Text:      "Dust settles.",
			Audio:     wavStub(),
			AudioType: "audio/wav",
		}},
	}}}

	h := newSessionHarness(t, src, time.Second)
	if err := h.session.Submit("first"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.waitForState(t, playback.StateIdle, 2*time.Second)

	if err := h.session.Submit("second"); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	h.waitForState(t, playback.StateIdle, 2*time.Second)

	h.mu.Lock()
	states := append([]playback.State(nil), h.states...)
	h.mu.Unlock()
	for _, st := range states {
		if st == playback.StateCanceled {
			t.Fatalf("state sequence %v passed through canceled", states)
		}
	}

	_, errs, _, completes := h.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if completes != 2 {
		t.Fatalf("completion effects fired %d times, want 2", completes)
	}
	if got := h.player.PlayCalls(); got != 2 {
		t.Errorf("play calls = %d, want 2", got)
	}
}

func TestSessionTransportFailure(t *testing.T) {
	src := &fakeNarrator{err: errors.New("connection refused")}
	h := newSessionHarness(t, src, 30*time.Millisecond)

	if err := h.session.Submit("hello"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.waitForState(t, playback.StateIdle, time.Second)

	_, errs, _, _ := h.snapshot()
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one transport message", errs)
	}

	// The message auto-clears after the configured delay.
	deadline := time.After(time.Second)
	for {
		_, _, cleared, _ := h.snapshot()
		if cleared == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("error message never auto-cleared")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSessionEmptyNarration(t *testing.T) {
	src := &fakeNarrator{responses: []*narrate.Response{{}}}
	h := newSessionHarness(t, src, time.Second)

	if err := h.session.Submit("hello"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.waitForState(t, playback.StateIdle, time.Second)

	_, errs, _, completes := h.snapshot()
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one empty-narration message", errs)
	}
	if completes != 0 {
		t.Error("empty narration must not fire completion effects")
	}
}

func TestSessionRejectsEmptyPrompt(t *testing.T) {
	src := &fakeNarrator{}
	h := newSessionHarness(t, src, time.Second)

	if err := h.session.Submit("   "); !errors.Is(err, playback.ErrEmptyPrompt) {
		t.Fatalf("Submit(blank) = %v, want ErrEmptyPrompt", err)
	}
	if src.calls != 0 {
		t.Error("blank prompt must not reach the narrator")
	}
}

func TestStateMachineTransitions(t *testing.T) {
	sm := playback.NewStateMachine()

	steps := []struct {
		to playback.State
		ok bool
	}{
		{playback.StatePlaying, false}, // cannot play from idle
		{playback.StateSubmitting, true},
		{playback.StateCanceled, true}, // superseded mid-request
		{playback.StateSubmitting, true},
		{playback.StatePlaying, true},
		{playback.StateCanceled, true}, // superseded mid-playback
		{playback.StateSubmitting, true},
		{playback.StatePlaying, true},
		{playback.StateIdle, true},
	}
	for i, step := range steps {
		if got := sm.Transition(step.to); got != step.ok {
			t.Fatalf("step %d: Transition(%v) = %v, want %v (at %v)",
				i, step.to, got, step.ok, sm.Current())
		}
	}
	if sm.Current() != playback.StateIdle {
		t.Errorf("final state = %v, want idle", sm.Current())
	}
}
