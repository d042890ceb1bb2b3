package playback

import (
	"sync"
	"time"
)

// MockPlayer implements Player without an audio device. Tests drive it
// either manually (SetPosition/Finish) or with a scaled clock so a
// multi-second clip plays out in milliseconds of real time.
type MockPlayer struct {
	mu sync.Mutex

	loaded   bool
	playing  bool
	closed   bool
	duration time.Duration
	position time.Duration
	done     chan error

	// Scaled-clock mode: when timeScale > 0, Position advances at
	// timeScale virtual seconds per real second and playback finishes
	// itself at the clip's duration.
	timeScale float64
	startedAt time.Time

	// Failure injection
	loadErr error
	playErr error

	// Fixed duration returned for every Load when bytesPerSecond is 0.
	fixedDuration time.Duration
	// When set, duration is derived from payload size.
	bytesPerSecond int

	// Observability for tests
	loadCalls   int
	playCalls   int
	liveHandles int
	maxHandles  int
}

// NewMockPlayer creates a mock that reports a one second duration for any
// payload until configured otherwise.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{fixedDuration: time.Second}
}

// SetFixedDuration makes every subsequent Load report d.
func (m *MockPlayer) SetFixedDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixedDuration = d
	m.bytesPerSecond = 0
}

// SetBytesPerSecond derives the reported duration from payload size.
func (m *MockPlayer) SetBytesPerSecond(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytesPerSecond = n
}

// SetTimeScale enables the scaled clock: scale virtual seconds elapse per
// real second of playback. Zero disables it (manual positioning).
func (m *MockPlayer) SetTimeScale(scale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeScale = scale
}

// FailNextLoad makes the next Load return err.
func (m *MockPlayer) FailNextLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailNextPlay makes the next Play return err.
func (m *MockPlayer) FailNextPlay(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// Load implements Player. The previously held handle, if any, is released
// before the new one is counted live.
func (m *MockPlayer) Load(data []byte, mimeType string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrPlayerClosed
	}

	// Release prior resource first, mirroring the real player.
	if m.loaded {
		m.liveHandles--
		m.loaded = false
	}

	m.loadCalls++
	if m.loadErr != nil {
		err := m.loadErr
		m.loadErr = nil
		return 0, err
	}
	if len(data) == 0 {
		return 0, ErrNoAudio
	}

	if m.bytesPerSecond > 0 {
		m.duration = time.Duration(len(data)) * time.Second / time.Duration(m.bytesPerSecond)
	} else {
		m.duration = m.fixedDuration
	}

	m.loaded = true
	m.position = 0
	m.liveHandles++
	if m.liveHandles > m.maxHandles {
		m.maxHandles = m.liveHandles
	}
	return m.duration, nil
}

// Play implements Player.
func (m *MockPlayer) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrPlayerClosed
	}
	if !m.loaded {
		return ErrNotLoaded
	}
	if m.playing {
		return ErrAlreadyPlaying
	}
	m.playCalls++
	if m.playErr != nil {
		err := m.playErr
		m.playErr = nil
		return err
	}

	m.playing = true
	m.position = 0
	m.startedAt = time.Now()
	m.done = make(chan error, 1)

	if m.timeScale > 0 {
		go m.clockLoop(m.done)
	}
	return nil
}

// clockLoop finishes scaled-clock playback at the clip's duration.
func (m *MockPlayer) clockLoop(done chan error) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		if !m.playing || m.done != done {
			m.mu.Unlock()
			return
		}
		if m.scaledPositionLocked() >= m.duration {
			m.position = m.duration
			m.playing = false
			m.mu.Unlock()
			done <- nil
			return
		}
		m.mu.Unlock()
	}
}

func (m *MockPlayer) scaledPositionLocked() time.Duration {
	elapsed := time.Since(m.startedAt)
	return time.Duration(float64(elapsed) * m.timeScale)
}

// Done implements Player.
func (m *MockPlayer) Done() <-chan error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		// Never played: an already-resolved channel keeps callers from
		// blocking forever on misuse.
		ch := make(chan error, 1)
		ch <- ErrNotLoaded
		return ch
	}
	return m.done
}

// Position implements Player.
func (m *MockPlayer) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing && m.timeScale > 0 {
		pos := m.scaledPositionLocked()
		if pos > m.duration {
			pos = m.duration
		}
		return pos
	}
	return m.position
}

// IsPlaying implements Player.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Stop implements Player.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return nil
	}
	m.playing = false
	done := m.done
	m.mu.Unlock()
	done <- nil
	return nil
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.liveHandles--
		m.loaded = false
	}
	m.closed = true
	return nil
}

// SetPosition moves the manual playback position.
func (m *MockPlayer) SetPosition(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = pos
}

// Finish simulates natural end of playback.
func (m *MockPlayer) Finish() {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = false
	m.position = m.duration
	done := m.done
	m.mu.Unlock()
	done <- nil
}

// Fail simulates a mid-playback device failure.
func (m *MockPlayer) Fail(err error) {
	m.mu.Lock()
	if !m.playing {
		m.mu.Unlock()
		return
	}
	m.playing = false
	done := m.done
	m.mu.Unlock()
	done <- err
}

// LoadCalls returns how many times Load ran.
func (m *MockPlayer) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// PlayCalls returns how many times Play ran.
func (m *MockPlayer) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// LiveHandles returns the number of currently held audio handles.
func (m *MockPlayer) LiveHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveHandles
}

// MaxHandles returns the peak number of simultaneously held handles.
func (m *MockPlayer) MaxHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxHandles
}
