// Package narrate defines the narration wire format shared by the client
// and the server, plus the HTTP client used to request a narration.
package narrate

// Request is the payload for /api/chat and /api/narrate.
type Request struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// Segment is one unit of narrated text with its synthesized audio.
// Audio is base64-encoded on the wire (Go's encoding/json does this for
// []byte). A segment with Error set carries no playable audio and is meant
// to be rendered as static text.
type Segment struct {
	Text      string `json:"text"`
	Audio     []byte `json:"audio,omitempty"`
	AudioType string `json:"audio_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HasAudio reports whether the segment carries a playable payload.
func (s Segment) HasAudio() bool {
	return s.Error == "" && len(s.Audio) > 0
}

// Response is the ordered segment list returned by /api/narrate.
// Insertion order is playback order and is never reordered.
type Response struct {
	Segments []Segment `json:"segments"`
}

// ChatResponse is the text-only payload returned by /api/chat.
type ChatResponse struct {
	Text string `json:"text"`
}

// ErrorResponse mirrors the backend's error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
