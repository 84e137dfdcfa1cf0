package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/console"
	"github.com/wippyai/script-runtime/host"
	"github.com/wippyai/script-runtime/str"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const previewLen = 40

type entry struct {
	value   str.String
	preview string
}

// playground holds the strings built in an interactive session.
type playground struct {
	sess    *host.Session
	entries []entry
}

// exec runs one command line and returns a status message.
//
//	text or "quoted text"   construct a string
//	cat i j                 concatenate entries i and j
//	free i                  release entry i
//	reset                   release everything
func (p *playground) exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "cat":
		idx, err := p.indices(fields[1:], 2)
		if err != nil {
			return "", err
		}
		v, err := p.sess.Strings.Concat(p.entries[idx[0]].value, p.entries[idx[1]].value)
		if err != nil {
			return "", err
		}
		return p.add(v)

	case "free":
		idx, err := p.indices(fields[1:], 1)
		if err != nil {
			return "", err
		}
		if err := p.sess.Strings.Release(p.entries[idx[0]].value); err != nil {
			return "", err
		}
		p.entries = append(p.entries[:idx[0]], p.entries[idx[0]+1:]...)
		return fmt.Sprintf("freed [%d]", idx[0]), nil

	case "reset":
		p.sess.Arena.Reset()
		p.entries = nil
		return "heap reset", nil
	}

	text := line
	if unquoted, err := strconv.Unquote(line); err == nil {
		text = unquoted
	}
	v, err := p.sess.Strings.FromBytes([]byte(text))
	if err != nil {
		return "", err
	}
	return p.add(v)
}

func (p *playground) add(v str.String) (string, error) {
	b, err := p.sess.Strings.Bytes(v)
	if err != nil {
		return "", err
	}
	preview := string(b)
	if len(preview) > previewLen {
		preview = preview[:previewLen] + "..."
	}
	p.entries = append(p.entries, entry{value: v, preview: preview})
	return fmt.Sprintf("[%d] = %s", len(p.entries)-1, v), nil
}

func (p *playground) indices(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d index argument(s), got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 || v >= len(p.entries) {
			return nil, fmt.Errorf("no entry %q", a)
		}
		out[i] = v
	}
	return out, nil
}

type interactiveModel struct {
	err    error
	cfg    *config.Config
	pg     *playground
	status string
	input  textinput.Model
}

type readyMsg struct {
	err  error
	sess *host.Session
}

func newInteractiveModel(cfg *config.Config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = `hello, "quoted", cat 0 1, free 0, reset`
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	return &interactiveModel{cfg: cfg, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.open)
}

func (m *interactiveModel) open() tea.Msg {
	sess, err := host.NewStandaloneSession(m.cfg, console.New(nil, nil), nil)
	return readyMsg{sess: sess, err: err}
}

func (m *interactiveModel) close() {
	if m.pg != nil {
		_ = m.pg.sess.Close()
		m.pg = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.close()
			return m, tea.Quit

		case "enter":
			if m.pg == nil {
				return m, nil
			}
			m.status, m.err = m.pg.exec(m.input.Value())
			m.input.Reset()
			return m, nil
		}

	case readyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.pg = &playground{sess: msg.sess}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.pg == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
		}
		return "Creating heap..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("String Playground"))
	b.WriteString(" ")
	b.WriteString(string(m.cfg.Heap.Backing))
	b.WriteString(" heap\n\n")

	if len(m.pg.entries) == 0 {
		b.WriteString(helpStyle.Render("no strings yet"))
		b.WriteString("\n")
	}
	for i, e := range m.pg.entries {
		b.WriteString(indexStyle.Render(fmt.Sprintf("[%d]", i)))
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(e.value.String()))
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.preview))
		b.WriteString("\n")
	}

	st := m.pg.sess.Arena.Stats()
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("live %d blocks / %s • peak %s • heap %s • free %s",
		st.LiveBlocks, humanize.IBytes(st.LiveBytes), humanize.IBytes(st.PeakBytes),
		humanize.IBytes(st.HeapBytes), humanize.IBytes(st.FreeBytes))))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(resultStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • esc quit"))

	return b.String()
}

func runInteractive(cfg *config.Config) error {
	m := newInteractiveModel(cfg)
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
