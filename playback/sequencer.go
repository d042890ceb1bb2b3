package playback

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/voidlabs/narrator/narrate"
)

// SegmentStart describes a segment the moment it is handed to the view:
// either beginning playback, or rendered statically because it carries no
// playable audio.
type SegmentStart struct {
	Index  int
	Text   string
	Tokens []string
	// Static means no playback drives this segment; every token is
	// revealed immediately.
	Static bool
	// Windows are the word timing windows; nil for static segments.
	Windows []Window
}

// Sequencer drives an ordered segment list through the player one at a
// time. Segments play strictly in order; segment N+1 never starts before
// segment N's completion (or its caught failure) resolves. A bad segment
// degrades to static text and the sequence continues.
type Sequencer struct {
	player   Player
	interval time.Duration
	logger   *log.Logger
}

// SegmentEvents carries the per-run callbacks. They are passed to Run
// rather than registered on the Sequencer so each cycle can guard its own
// events against staleness.
type SegmentEvents struct {
	Segment   func(SegmentStart)
	Highlight func(segment, word int)
}

// NewSequencer creates a sequencer polling playback position at the given
// interval for word highlighting.
func NewSequencer(player Player, interval time.Duration, logger *log.Logger) *Sequencer {
	if logger == nil {
		logger = log.Default()
	}
	return &Sequencer{
		player:   player,
		interval: interval,
		logger:   logger,
	}
}

// Run plays segments in order. The context is checked at every segment
// boundary: cancellation stops the sequence without completion effects and
// returns the context error. A nil return means natural exhaustion.
func (s *Sequencer) Run(ctx context.Context, segments []narrate.Segment, ev SegmentEvents) error {
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !seg.HasAudio() {
			if seg.Error != "" {
				s.logger.Warn("segment carries error marker, rendering statically",
					"segment", i, "reason", seg.Error)
			}
			s.emitStatic(ev, i, seg.Text)
			continue
		}

		if err := s.playSegment(ctx, i, seg, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Local recovery: one bad segment never aborts the narration.
			s.logger.Error("segment playback failed, rendering statically",
				"segment", i, "err", err)
			s.emitStatic(ev, i, seg.Text)
		}
	}
	return ctx.Err()
}

// playSegment loads, plays and awaits one segment, advancing the word
// cursor from polled playback position while it runs.
func (s *Sequencer) playSegment(ctx context.Context, index int, seg narrate.Segment, ev SegmentEvents) error {
	duration, err := s.player.Load(seg.Audio, seg.AudioType)
	if err != nil {
		return err
	}

	windows := WordWindows(seg.Text, duration)
	if err := s.player.Play(); err != nil {
		return err
	}

	if ev.Segment != nil {
		ev.Segment(SegmentStart{
			Index:   index,
			Text:    seg.Text,
			Tokens:  Tokens(seg.Text),
			Windows: windows,
		})
	}

	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		RunSync(syncCtx, s.player, windows, s.interval, func(word int) {
			if ev.Highlight != nil {
				ev.Highlight(index, word)
			}
		})
	}()

	select {
	case err := <-s.player.Done():
		// The player reports not-playing before delivering completion,
		// so the sync loop drains any trailing words on its next tick
		// and exits on its own. It must not be canceled before then.
		<-syncDone
		return err
	case <-ctx.Done():
		// Cancellation is cooperative: pause the device, then wait for
		// the pending completion so the player is quiescent before the
		// next cycle touches it.
		_ = s.player.Stop()
		stopSync()
		<-syncDone
		<-s.player.Done()
		return ctx.Err()
	}
}

func (s *Sequencer) emitStatic(ev SegmentEvents, index int, text string) {
	if ev.Segment != nil {
		ev.Segment(SegmentStart{
			Index:  index,
			Text:   text,
			Tokens: Tokens(text),
			Static: true,
		})
	}
}
