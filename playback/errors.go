package playback

import "errors"

// Common errors for the playback engine.
var (
	// Player errors
	ErrNoAudio          = errors.New("segment has no audio")
	ErrUnsupportedAudio = errors.New("unsupported audio type")
	ErrNotLoaded        = errors.New("no audio loaded")
	ErrAlreadyPlaying   = errors.New("audio is already playing")
	ErrPlayerClosed     = errors.New("player is closed")

	// Session errors
	ErrEmptyPrompt = errors.New("empty prompt")
)
