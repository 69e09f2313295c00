// Package prompt asks the user for the emoji name, shape and sizes.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/StrongerSoftworks/emoji-tiler/internal/imagetiler"
	"github.com/StrongerSoftworks/emoji-tiler/internal/output"
)

// ErrAborted is returned when the user quits before answering.
var ErrAborted = errors.New("prompt aborted")

// Questions describes what to ask. Fields that are already known are skipped.
type Questions struct {
	// Name is asked for when empty.
	Name string
	// AskMode offers a choice between a square and a rectangular emoji.
	AskMode bool
	// Sizes are offered for square emoji. No sizes skips the question.
	Sizes []imagetiler.Size
}

// Answers holds the user's choices.
type Answers struct {
	Name  string
	Mode  imagetiler.Mode
	Sizes []imagetiler.Size
}

// Prompter asks Questions.
type Prompter interface {
	Ask(ctx context.Context, q Questions) (Answers, error)
}

// Terminal runs the questions as a bubbletea program.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (p *Terminal) Ask(ctx context.Context, q Questions) (Answers, error) {
	program := tea.NewProgram(newModel(q),
		tea.WithInput(p.In),
		tea.WithOutput(p.Out),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if err != nil {
		return Answers{}, err
	}

	m := final.(model)
	if m.aborted {
		return Answers{}, ErrAborted
	}
	return m.answers, nil
}

type stage int

const (
	stageName stage = iota
	stageMode
	stageSizes
	stageDone
)

var modes = []imagetiler.Mode{imagetiler.ModeSquare, imagetiler.ModeRectangle}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

type model struct {
	questions Questions
	stage     stage
	input     textinput.Model
	cursor    int
	selected  map[imagetiler.Size]bool
	answers   Answers
	err       error
	aborted   bool
}

func newModel(q Questions) model {
	input := textinput.New()
	input.Placeholder = "party-parrot"
	input.CharLimit = 64
	input.Focus()

	m := model{
		questions: q,
		input:     input,
		selected:  make(map[imagetiler.Size]bool),
		answers:   Answers{Name: q.Name, Mode: imagetiler.ModeSquare},
	}
	m.stage = m.next(stageName - 1)
	return m
}

// next returns the first stage after s that still needs an answer.
func (m model) next(s stage) stage {
	for s++; s < stageDone; s++ {
		switch s {
		case stageName:
			if m.answers.Name == "" {
				return s
			}
		case stageMode:
			if m.questions.AskMode {
				return s
			}
		case stageSizes:
			if m.answers.Mode == imagetiler.ModeSquare && len(m.questions.Sizes) > 0 {
				return s
			}
		}
	}
	return stageDone
}

func (m model) Init() tea.Cmd {
	if m.stage == stageDone {
		return tea.Quit
	}
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.stage == stageName {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}

	switch m.stage {
	case stageName:
		return m.updateName(key)
	case stageMode:
		return m.updateMode(key)
	case stageSizes:
		return m.updateSizes(key)
	}
	return m, nil
}

func (m model) advance() (tea.Model, tea.Cmd) {
	m.err = nil
	m.cursor = 0
	m.stage = m.next(m.stage)
	if m.stage == stageDone {
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateName(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		return m, cmd
	}

	name := strings.TrimSpace(m.input.Value())
	if err := output.ValidateName(name); err != nil {
		m.err = err
		return m, nil
	}
	m.answers.Name = name
	return m.advance()
}

func (m model) updateMode(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k", "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(modes)
	case "enter":
		m.answers.Mode = modes[m.cursor]
		return m.advance()
	}
	return m, nil
}

func (m model) updateSizes(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	sizes := m.questions.Sizes
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(sizes)-1 {
			m.cursor++
		}
	case " ", "x":
		s := sizes[m.cursor]
		m.selected[s] = !m.selected[s]
	case "a":
		all := len(m.chosen()) < len(sizes)
		for _, s := range sizes {
			m.selected[s] = all
		}
	case "enter":
		chosen := m.chosen()
		if len(chosen) == 0 {
			m.err = errors.New("select at least one size")
			return m, nil
		}
		m.answers.Sizes = chosen
		return m.advance()
	}
	return m, nil
}

func (m model) chosen() []imagetiler.Size {
	var sizes []imagetiler.Size
	for s, ok := range m.selected {
		if ok {
			sizes = append(sizes, s)
		}
	}
	slices.Sort(sizes)
	return sizes
}

func (m model) View() string {
	var b strings.Builder

	switch m.stage {
	case stageName:
		b.WriteString(titleStyle.Render("What is the name of your emoji?") + "\n\n")
		b.WriteString(m.input.View() + "\n")
	case stageMode:
		b.WriteString(titleStyle.Render("Which shape should "+m.answers.Name+" be?") + "\n\n")
		for i, mode := range modes {
			b.WriteString(pointer(i == m.cursor) + string(mode) + "\n")
		}
	case stageSizes:
		b.WriteString(titleStyle.Render("Which sizes should "+m.answers.Name+" come in?") + "\n\n")
		for i, s := range m.questions.Sizes {
			b.WriteString(pointer(i == m.cursor) + checkbox(m.selected[s], s.Label()) + "\n")
		}
		b.WriteString(helpStyle.Render("\nspace: toggle  a: all  enter: confirm") + "\n")
	default:
		return ""
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	return b.String()
}

func pointer(current bool) string {
	if current {
		return cursorStyle.Render("> ")
	}
	return "  "
}

func checkbox(selected bool, label string) string {
	if selected {
		return selectedStyle.Render(fmt.Sprintf("[x] %s", label))
	}
	return fmt.Sprintf("[ ] %s", label)
}
