package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/voidlabs/narrator/playback"
)

// No audio device in CI: these tests only exercise paths that never
// open the oto context.

func TestPlayerDoneBeforePlay(t *testing.T) {
	p := NewPlayer()
	select {
	case err := <-p.Done():
		if !errors.Is(err, playback.ErrNotLoaded) {
			t.Fatalf("Done before Play delivered %v, want ErrNotLoaded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Done before Play blocked instead of resolving")
	}
}

func TestPlayerLoadRejectsEmptyAndForeignClips(t *testing.T) {
	p := NewPlayer()

	if _, err := p.Load(nil, "audio/wav"); !errors.Is(err, playback.ErrNoAudio) {
		t.Errorf("Load(empty) = %v, want ErrNoAudio", err)
	}
	if _, err := p.Load([]byte("OggS...."), "audio/ogg"); !errors.Is(err, playback.ErrUnsupportedAudio) {
		t.Errorf("Load(ogg) = %v, want ErrUnsupportedAudio", err)
	}
}

func TestPlayerPlayWithoutLoad(t *testing.T) {
	p := NewPlayer()
	if err := p.Play(); !errors.Is(err, playback.ErrNotLoaded) {
		t.Errorf("Play without Load = %v, want ErrNotLoaded", err)
	}
}
