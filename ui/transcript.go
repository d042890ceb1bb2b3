package ui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/voidlabs/narrator/playback"
)

// segmentView is the render state of one transcript segment.
type segmentView struct {
	tokens []string
	static bool
	// word is the index of the token being spoken: -1 before the first
	// highlight, len(tokens) once the segment has fully played out.
	word int
}

func newSegmentView(st playback.SegmentStart) segmentView {
	return segmentView{
		tokens: st.Tokens,
		static: st.Static,
		word:   -1,
	}
}

// finish marks every token as spoken.
func (s *segmentView) finish() {
	s.word = len(s.tokens)
}

// render draws the segment wrapped to width. Spoken words, the active
// word, and unspoken words each get their own style; static segments
// show all text at once.
func (s *segmentView) render(width int) string {
	text := strings.Join(s.tokens, " ")
	if s.static {
		return staticStyle.Render(wordwrap.String(text, width))
	}

	parts := make([]string, len(s.tokens))
	for i, tok := range s.tokens {
		switch {
		case i < s.word:
			parts[i] = spokenStyle.Render(tok)
		case i == s.word:
			parts[i] = activeWordStyle.Render(tok)
		default:
			parts[i] = unspokenStyle.Render(tok)
		}
	}
	return wordwrap.String(strings.Join(parts, " "), width)
}

// transcript is the ordered set of segments for the current narration.
type transcript struct {
	segments []segmentView
}

func (t *transcript) reset() {
	t.segments = nil
}

func (t *transcript) startSegment(st playback.SegmentStart) {
	// A new segment means the previous one finished playing.
	if n := len(t.segments); n > 0 {
		t.segments[n-1].finish()
	}
	for len(t.segments) <= st.Index {
		t.segments = append(t.segments, segmentView{word: -1})
	}
	t.segments[st.Index] = newSegmentView(st)
}

func (t *transcript) highlight(segment, word int) {
	if segment < 0 || segment >= len(t.segments) {
		return
	}
	s := &t.segments[segment]
	if word > s.word {
		s.word = word
	}
}

// finish marks the whole narration as played out.
func (t *transcript) finish() {
	for i := range t.segments {
		t.segments[i].finish()
	}
}

func (t *transcript) empty() bool {
	return len(t.segments) == 0
}

func (t *transcript) render(width int) string {
	lines := make([]string, 0, len(t.segments))
	for i := range t.segments {
		lines = append(lines, t.segments[i].render(width))
	}
	return strings.Join(lines, "\n\n")
}

// plainText returns the unstyled transcript, used for clipboard copy.
func (t *transcript) plainText() string {
	lines := make([]string, 0, len(t.segments))
	for i := range t.segments {
		lines = append(lines, strings.Join(t.segments[i].tokens, " "))
	}
	return strings.Join(lines, "\n")
}
