package ui

import (
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const dissolveInterval = 40 * time.Millisecond

// dissolve fades rendered text out glyph by glyph, used as the exit
// animation. Each step erases a random slice of the remaining glyphs.
type dissolve struct {
	lines     [][]rune
	remaining int
	rng       *rand.Rand
}

func newDissolve(view string) *dissolve {
	d := &dissolve{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, line := range strings.Split(view, "\n") {
		runes := []rune(line)
		for _, r := range runes {
			if r != ' ' {
				d.remaining++
			}
		}
		d.lines = append(d.lines, runes)
	}
	return d
}

// step erases roughly a fifth of the remaining glyphs.
func (d *dissolve) step() {
	if d.remaining == 0 {
		return
	}
	target := d.remaining / 5
	if target < 8 {
		target = 8
	}
	for _, runes := range d.lines {
		for i, r := range runes {
			if r == ' ' || target == 0 {
				continue
			}
			if d.rng.Intn(3) == 0 {
				runes[i] = ' '
				d.remaining--
				target--
			}
		}
	}
}

func (d *dissolve) done() bool {
	return d.remaining == 0
}

func (d *dissolve) view() string {
	lines := make([]string, len(d.lines))
	for i, runes := range d.lines {
		lines[i] = string(runes)
	}
	return strings.Join(lines, "\n")
}

func dissolveTick() tea.Cmd {
	return tea.Tick(dissolveInterval, func(t time.Time) tea.Msg {
		return dissolveTickMsg(t)
	})
}
