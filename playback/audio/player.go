package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/voidlabs/narrator/playback"
)

// Player plays WAV clips through the system audio device using oto.
// It implements playback.Player: one clip loaded at a time, the prior
// clip's resources released on each Load.
//
// The oto context is created lazily from the first clip's stream
// parameters. oto allows only one context per process, so every later
// clip must share the same sample rate and channel count. TTS output
// from a single voice is uniform, which makes this a safe constraint.
type Player struct {
	mu sync.Mutex

	context    *oto.Context
	sampleRate int
	channels   int

	player *oto.Player

	// Keeps the decoded PCM alive during playback. Letting the GC
	// collect it while oto reads from it causes audible static.
	pcm      []byte
	duration time.Duration
	loaded   bool

	playing   bool
	startedAt time.Time
	position  time.Duration

	done   chan error
	closed bool
}

// NewPlayer creates a player. The audio device is not opened until the
// first Load.
func NewPlayer() *Player {
	return &Player{}
}

// Load decodes a WAV clip and prepares it for playback, releasing any
// previously loaded clip first. It returns the clip's duration.
func (p *Player) Load(data []byte, mimeType string) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, playback.ErrPlayerClosed
	}

	p.releaseLocked()

	if len(data) == 0 {
		return 0, playback.ErrNoAudio
	}
	if mimeType != "" && !strings.Contains(strings.ToLower(mimeType), "wav") {
		return 0, fmt.Errorf("%w: %s", playback.ErrUnsupportedAudio, mimeType)
	}

	pcm, rate, channels, duration, err := decodeWAV(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", playback.ErrUnsupportedAudio, err)
	}

	if err := p.ensureContextLocked(rate, channels); err != nil {
		return 0, err
	}

	p.pcm = pcm
	p.duration = duration
	p.position = 0
	p.loaded = true

	return duration, nil
}

// ensureContextLocked opens the oto context on first use and verifies
// that later clips match its stream parameters.
func (p *Player) ensureContextLocked(rate, channels int) error {
	if p.context != nil {
		if rate != p.sampleRate || channels != p.channels {
			return fmt.Errorf("%w: stream is %dHz/%dch, device opened at %dHz/%dch",
				playback.ErrUnsupportedAudio, rate, channels, p.sampleRate, p.channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	p.context = ctx
	p.sampleRate = rate
	p.channels = channels
	return nil
}

// Play starts playback of the loaded clip. The returned completion is
// delivered on Done: nil when the clip ends or is stopped.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return playback.ErrPlayerClosed
	}
	if !p.loaded {
		return playback.ErrNotLoaded
	}
	if p.playing {
		return playback.ErrAlreadyPlaying
	}

	player := p.context.NewPlayer(bytes.NewReader(p.pcm))
	if player == nil {
		return errors.New("create oto player")
	}

	p.player = player
	p.startedAt = time.Now()
	p.position = 0
	p.playing = true
	p.done = make(chan error, 1)

	player.Play()
	go p.monitor(player, p.done)

	return nil
}

// monitor watches an oto player until its clip drains, then delivers
// the completion. Exactly one value is sent per Play: here on natural
// end, or in Stop when playback is cut short.
func (p *Player) monitor(player *oto.Player, done chan error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.done != done || !p.playing {
			// Stopped or superseded; Stop sent the completion.
			p.mu.Unlock()
			return
		}
		if !player.IsPlaying() {
			p.playing = false
			p.position = p.duration
			p.player = nil
			p.mu.Unlock()
			player.Close()
			done <- nil
			return
		}
		p.mu.Unlock()
	}
}

// Done returns the channel carrying the current clip's completion.
func (p *Player) Done() <-chan error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		// Never played: an already-resolved channel keeps callers from
		// blocking forever on misuse.
		ch := make(chan error, 1)
		ch <- playback.ErrNotLoaded
		return ch
	}
	return p.done
}

// Position returns the playhead position within the current clip,
// clamped to the clip's duration.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return p.position
	}
	elapsed := time.Since(p.startedAt)
	if elapsed > p.duration {
		elapsed = p.duration
	}
	return elapsed
}

// IsPlaying reports whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Stop halts playback. The pending completion, if any, is delivered as
// nil.
func (p *Player) Stop() error {
	p.mu.Lock()

	if !p.playing {
		p.mu.Unlock()
		return nil
	}

	elapsed := time.Since(p.startedAt)
	if elapsed > p.duration {
		elapsed = p.duration
	}
	p.position = elapsed
	p.playing = false

	player := p.player
	p.player = nil
	done := p.done
	p.mu.Unlock()

	var closeErr error
	if player != nil {
		player.Pause()
		closeErr = player.Close()
	}
	done <- nil
	return closeErr
}

// Close stops playback and releases the loaded clip. The oto context
// has no close operation in v3; dropping the reference is sufficient.
func (p *Player) Close() error {
	err := p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.context = nil
	p.closed = true
	return err
}

// releaseLocked drops the loaded clip so its PCM can be collected.
func (p *Player) releaseLocked() {
	if p.player != nil {
		p.player.Pause()
		p.player.Close()
		p.player = nil
	}
	p.playing = false
	p.pcm = nil
	p.duration = 0
	p.position = 0
	p.loaded = false
}
