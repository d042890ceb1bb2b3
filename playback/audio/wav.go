package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/wav"
)

// decodeWAV parses a WAV payload into 16-bit little-endian PCM, returning
// the stream parameters and the measured clip duration.
func decodeWAV(data []byte) (pcm []byte, sampleRate, channels int, duration time.Duration, err error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, 0, 0, 0, errors.New("not a valid wav file")
	}
	if d.BitDepth != 16 {
		return nil, 0, 0, 0, fmt.Errorf("unsupported wav bit depth %d", d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("decode wav: %w", err)
	}

	sampleRate = buf.Format.SampleRate
	channels = buf.Format.NumChannels
	if sampleRate <= 0 || channels <= 0 {
		return nil, 0, 0, 0, fmt.Errorf("invalid wav format: rate=%d channels=%d", sampleRate, channels)
	}

	pcm = make([]byte, 2*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s))) //nolint:gosec
	}

	frames := len(buf.Data) / channels
	duration = time.Duration(frames) * time.Second / time.Duration(sampleRate)
	return pcm, sampleRate, channels, duration, nil
}
