// Package console writes diagnostic lines for guest programs.
//
// It backs console__log and console__error: each call writes the bytes up to
// the first 0 byte followed by a newline. Output failures are not reported
// back to the program.
package console

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ColorMode selects when error lines are styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

// Console writes lines to an output and an error stream.
type Console struct {
	stdout io.Writer
	stderr io.Writer
	styled bool
	mu     sync.Mutex
}

// New creates a console over the given writers. Error lines are not styled.
func New(stdout, stderr io.Writer) *Console {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &Console{stdout: stdout, stderr: stderr}
}

// Std creates a console over the process stdout and stderr, styling error
// lines when stderr is a terminal.
func Std() *Console {
	c := New(os.Stdout, os.Stderr)
	c.SetColor(ColorAuto)
	return c
}

// SetColor sets the error styling mode. Auto styles only when stderr is a
// terminal.
func (c *Console) SetColor(mode ColorMode) {
	styled := false
	switch mode {
	case ColorAlways:
		styled = true
	case ColorAuto:
		if f, ok := c.stderr.(*os.File); ok {
			styled = term.IsTerminal(int(f.Fd()))
		}
	}

	c.mu.Lock()
	c.styled = styled
	c.mu.Unlock()
}

// Log writes a line to the output stream.
func (c *Console) Log(line []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	writeLine(c.stdout, terminated(line))
}

// Error writes a line to the error stream.
func (c *Console) Error(line []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line = terminated(line)
	if c.styled {
		line = []byte(errorStyle.Render(string(line)))
	}
	writeLine(c.stderr, line)
}

func terminated(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

func writeLine(w io.Writer, line []byte) {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, _ = w.Write(buf)
}
