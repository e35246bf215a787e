// Package console renders display frames as a bordered box on a terminal,
// standing in for the LCD on machines without one attached.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/seantiz/spotipi/internal/display"
)

// Console is a display that writes each frame to w.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	cols  int
	rows  int
	style lipgloss.Style
}

var _ display.Display = (*Console)(nil)

// New returns a cols x rows console display writing to w.
func New(w io.Writer, cols, rows int) *Console {
	return &Console{
		w:    w,
		cols: cols,
		rows: rows,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
	}
}

// Size reports the emulated geometry.
func (c *Console) Size() (int, int) {
	return c.cols, c.rows
}

// Clear renders an empty frame.
func (c *Console) Clear() error {
	return c.Show(nil)
}

// Show renders lines inside the frame.
func (c *Console) Show(lines []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := make([]string, c.rows)
	for row := range frame {
		var line string
		if row < len(lines) {
			line = display.Fit(lines[row], c.cols)
		}
		frame[row] = display.Pad(line, c.cols)
	}

	if _, err := fmt.Fprintln(c.w, c.style.Render(strings.Join(frame, "\n"))); err != nil {
		return fmt.Errorf("console display: %w", err)
	}
	return nil
}

// Close renders a final empty frame.
func (c *Console) Close() error {
	return c.Clear()
}
