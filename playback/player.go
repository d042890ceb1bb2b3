package playback

import "time"

// Player owns one playable audio unit at a time. Implementations must
// release the previously loaded resource before allocating a new one, so
// resource usage stays bounded regardless of narration length.
type Player interface {
	// Load decodes a binary audio payload and prepares it for playback,
	// returning the measured duration. Loading nil or empty data fails
	// with ErrNoAudio; an unknown MIME type fails with
	// ErrUnsupportedAudio.
	Load(data []byte, mimeType string) (time.Duration, error)

	// Play starts playback of the loaded audio. Calling Play before a
	// successful Load is ErrNotLoaded.
	Play() error

	// Done delivers exactly one value per successful Play: nil on natural
	// completion or an explicit Stop, an error on playback failure.
	// IsPlaying reports false by the time the value is delivered. Before
	// the first Play the channel is pre-resolved with ErrNotLoaded.
	Done() <-chan error

	// Position returns the current playback position.
	Position() time.Duration

	// IsPlaying reports whether audio is actively progressing.
	IsPlaying() bool

	// Stop halts playback. The pending Done value resolves to nil.
	Stop() error

	// Close releases the audio device and any held resources.
	Close() error
}
