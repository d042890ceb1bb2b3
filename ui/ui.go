// Package ui provides the terminal client for the narrator: a prompt
// line, the narrated transcript with word-by-word highlighting, and the
// playback lifecycle surfaced as status.
package ui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voidlabs/narrator/playback"
)

// NewProgram builds the Tea program around a playback session. The
// session's callbacks are bridged into the program as messages.
func NewProgram(session *playback.Session) *tea.Program {
	m := newModel(session)
	p := tea.NewProgram(m, tea.WithAltScreen())

	session.OnStateChange(func(st playback.State) { p.Send(stateChangedMsg(st)) })
	session.OnClear(func() { p.Send(clearTranscriptMsg{}) })
	session.OnSegment(func(st playback.SegmentStart) { p.Send(segmentStartedMsg(st)) })
	session.OnHighlight(func(segment, word int) { p.Send(wordHighlightMsg{segment: segment, word: word}) })
	session.OnError(func(message string) { p.Send(narrationErrorMsg(message)) })
	session.OnErrorCleared(func() { p.Send(errorClearedMsg{}) })
	session.OnComplete(func() { p.Send(narrationDoneMsg{}) })

	return p
}

type model struct {
	session *playback.Session

	input   textinput.Model
	spinner spinner.Model

	state      playback.State
	transcript transcript
	errMsg     string

	width  int
	height int

	dissolve *dissolve
}

func newModel(session *playback.Session) model {
	ti := textinput.New()
	ti.Placeholder = "Ask the narrator..."
	ti.PromptStyle = promptStyle
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = promptStyle

	return model{
		session: session,
		input:   ti,
		spinner: sp,
		state:   playback.StateIdle,
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.dissolve != nil {
		return m.updateDissolve(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.dissolve = newDissolve(m.plainView())
			return m, dissolveTick()

		case "enter":
			text := m.input.Value()
			if err := m.session.Submit(text); err != nil {
				if !errors.Is(err, playback.ErrEmptyPrompt) {
					m.errMsg = err.Error()
				}
				return m, nil
			}
			m.input.Reset()
			return m, m.spinner.Tick

		case "ctrl+y":
			if !m.transcript.empty() {
				_ = clipboard.WriteAll(m.transcript.plainText())
			}
			return m, nil
		}

	case stateChangedMsg:
		m.state = playback.State(msg)
		if m.state == playback.StateSubmitting {
			return m, m.spinner.Tick
		}
		return m, nil

	case clearTranscriptMsg:
		m.transcript.reset()
		m.errMsg = ""
		return m, nil

	case segmentStartedMsg:
		m.transcript.startSegment(playback.SegmentStart(msg))
		return m, nil

	case wordHighlightMsg:
		m.transcript.highlight(msg.segment, msg.word)
		return m, nil

	case narrationErrorMsg:
		m.errMsg = string(msg)
		return m, nil

	case errorClearedMsg:
		m.errMsg = ""
		return m, nil

	case narrationDoneMsg:
		m.transcript.finish()
		return m, nil

	case spinner.TickMsg:
		if m.state != playback.StateSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateDissolve drives the exit animation; all other input is ignored
// once the fade has started.
func (m model) updateDissolve(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case dissolveTickMsg:
		m.dissolve.step()
		if m.dissolve.done() {
			m.session.Shutdown()
			return m, tea.Quit
		}
		return m, dissolveTick()
	case tea.KeyMsg:
		// A second keypress skips the animation.
		m.session.Shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.dissolve != nil {
		return m.dissolve.view()
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("NARRATOR"))
	b.WriteString("\n\n")

	width := m.width - 6
	if width < 20 {
		width = 20
	}

	switch {
	case m.state == playback.StateSubmitting:
		b.WriteString(m.spinner.View())
		b.WriteString(subtleStyle.Render(" the narrator is thinking..."))
	case m.transcript.empty():
		b.WriteString(subtleStyle.Render("The page is blank. Say something."))
	default:
		b.WriteString(m.transcript.render(width))
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: narrate • ctrl+y: copy • esc: quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// plainView renders an unstyled snapshot for the dissolve animation,
// which mutates glyphs and would tear ANSI sequences.
func (m model) plainView() string {
	var b strings.Builder
	b.WriteString("NARRATOR\n\n")
	if !m.transcript.empty() {
		b.WriteString(m.transcript.plainText())
		b.WriteString("\n")
	}
	return b.String()
}
