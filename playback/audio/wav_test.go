package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

// makeWAV builds a minimal PCM WAV file: a 44-byte RIFF header followed
// by 16-bit little-endian samples.
func makeWAV(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()

	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2)) // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))         // bit depth
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	// Half a second of mono audio at 24kHz, the format Kokoro emits.
	samples := make([]int16, 12000)
	for i := range samples {
		samples[i] = int16(i % 256)
	}
	data := makeWAV(t, 24000, 1, samples)

	pcm, rate, channels, duration, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV() error = %v", err)
	}
	if rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	if duration != 500*time.Millisecond {
		t.Errorf("duration = %v, want 500ms", duration)
	}
	if len(pcm) != len(samples)*2 {
		t.Errorf("pcm length = %d, want %d", len(pcm), len(samples)*2)
	}

	// Spot-check sample round-trip.
	got := int16(binary.LittleEndian.Uint16(pcm[200:]))
	if got != samples[100] {
		t.Errorf("sample 100 = %d, want %d", got, samples[100])
	}
}

func TestDecodeWAVStereoDuration(t *testing.T) {
	// 0.25s of stereo at 48kHz: 24000 frames, 48000 samples.
	samples := make([]int16, 24000)
	data := makeWAV(t, 48000, 2, samples)

	_, rate, channels, duration, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV() error = %v", err)
	}
	if rate != 48000 || channels != 2 {
		t.Errorf("format = %dHz/%dch, want 48000Hz/2ch", rate, channels)
	}
	if duration != 250*time.Millisecond {
		t.Errorf("duration = %v, want 250ms", duration)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, _, err := decodeWAV([]byte("not audio at all")); err == nil {
		t.Fatal("decodeWAV() accepted garbage input")
	}
}
