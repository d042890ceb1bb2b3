package ui

import (
	"time"

	"github.com/voidlabs/narrator/playback"
)

// Messages delivered into the Bubble Tea loop by session callbacks.
// The session runs on its own goroutines; Program.Send is the only
// bridge back into Update.
type (
	stateChangedMsg playback.State

	clearTranscriptMsg struct{}

	segmentStartedMsg playback.SegmentStart

	wordHighlightMsg struct {
		segment int
		word    int
	}

	narrationErrorMsg string

	errorClearedMsg struct{}

	narrationDoneMsg struct{}

	dissolveTickMsg time.Time
)
