package playback

import (
	"context"
	"time"
)

// PositionSource reports playback progress. Implemented by the audio
// player; tests inject fakes so the sync loop runs against synthetic time.
type PositionSource interface {
	Position() time.Duration
	IsPlaying() bool
}

// Cursor tracks the highlighted word across poll ticks. It only moves
// forward: a jittery position read never causes the highlight to regress.
type Cursor struct {
	windows []Window
	last    int
}

// NewCursor creates a cursor over the given windows with no word
// highlighted yet.
func NewCursor(windows []Window) *Cursor {
	return &Cursor{windows: windows, last: -1}
}

// Advance maps pos to a window index and reports whether the highlight
// moved. The cursor steps at most one window per call so the reveal stays
// strictly word-by-word even when polling is coarse; callers loop until
// moved is false to catch up to a far position. The returned index is only
// meaningful when moved is true.
func (c *Cursor) Advance(pos time.Duration) (index int, moved bool) {
	idx := windowAt(c.windows, pos)
	if idx < 0 || idx <= c.last {
		return c.last, false
	}
	c.last++
	return c.last, true
}

// Current returns the last highlighted index, or -1 before the first
// advance.
func (c *Cursor) Current() int {
	return c.last
}

// RunSync polls src at the given interval and calls advance on every
// highlight move while playback is actively progressing. The loop exits when the
// context is canceled or the source stops playing; it performs one final
// position read on the stopping tick so end-of-clip drift still resolves
// to the last token. Stopping is always explicit, never left to GC.
func RunSync(ctx context.Context, src PositionSource, windows []Window, interval time.Duration, advance func(index int)) {
	if len(windows) == 0 {
		return
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	cursor := NewCursor(windows)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := src.Position()
			if !src.IsPlaying() {
				// Playback ran out between ticks: resolve the remaining
				// words at the final position, then stop.
				for {
					idx, moved := cursor.Advance(pos)
					if !moved {
						return
					}
					advance(idx)
				}
			}
			if idx, moved := cursor.Advance(pos); moved {
				advance(idx)
			}
		}
	}
}
