package playback

import (
	"strings"
	"time"
)

// Word timing is a coarse linear model: the measured segment duration is
// partitioned into equal-width windows, one per whitespace-delimited token.
// There is no phoneme alignment behind this; it only needs to be close
// enough for a word-by-word reveal to feel synchronized.

// Window is the time interval during which one token is the active word.
// Windows are contiguous and non-overlapping, covering [0, duration).
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Tokens splits text on runs of whitespace, discarding empty tokens.
// Token order is display order.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// WordWindows partitions total into one equal-width window per token of
// text. A token count of zero or a non-positive duration (for example when
// audio metadata is not available) yields nil, which callers must treat as
// "do not start the sync loop".
func WordWindows(text string, total time.Duration) []Window {
	tokens := Tokens(text)
	if len(tokens) == 0 || total <= 0 {
		return nil
	}

	step := total / time.Duration(len(tokens))
	windows := make([]Window, len(tokens))
	for i := range windows {
		windows[i] = Window{
			Start: time.Duration(i) * step,
			End:   time.Duration(i+1) * step,
		}
	}
	// Integer division leaves a remainder on the last window; the final
	// window's end must equal the full duration.
	windows[len(windows)-1].End = total
	return windows
}

// windowAt resolves a playback position to a window index. A position past
// the last window's upper bound resolves to the final token, which covers
// clock drift at end-of-clip. Returns -1 when no window applies.
func windowAt(windows []Window, pos time.Duration) int {
	for i, w := range windows {
		if pos >= w.Start && pos < w.End {
			return i
		}
	}
	if len(windows) > 0 && pos > 0 {
		return len(windows) - 1
	}
	return -1
}
