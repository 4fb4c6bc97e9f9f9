// Package console renders the race window as a table on a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
)

const clearScreen = "\033[H\033[2J"

// Display writes the window to out. On a terminal it redraws in place and
// uses colour; otherwise it appends plain tables.
type Display struct {
	out      io.Writer
	terminal bool

	mu sync.Mutex

	title   *color.Color
	faint   *color.Color
	soon    *color.Color
	pending *color.Color
}

var _ racewindow.Display = (*Display)(nil)

// New creates a console display writing to out.
func New(out io.Writer) *Display {
	terminal := false
	if f, ok := out.(*os.File); ok {
		terminal = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	d := &Display{
		out:      out,
		terminal: terminal,
		title:    color.New(color.Bold, color.Underline),
		faint:    color.New(color.Faint, color.Italic),
		soon:     color.New(color.FgHiRed, color.Bold),
		pending:  color.New(color.FgHiYellow),
	}
	for _, c := range []*color.Color{d.title, d.faint, d.soon, d.pending} {
		if terminal {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return d
}

func (d *Display) Render(entries []racewindow.Entry) {
	d.draw(entries)
}

// Refresh redraws on a terminal. Plain output skips countdown-only
// updates so logs stay readable.
func (d *Display) Refresh(entries []racewindow.Entry) {
	if !d.terminal {
		return
	}
	d.draw(entries)
}

func (d *Display) draw(entries []racewindow.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	if d.terminal {
		b.WriteString(clearScreen)
	}
	b.WriteString(d.title.Sprint("Next races"))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(d.faint.Sprint(" no upcoming races"))
		b.WriteString("\n\n")
		_, _ = io.WriteString(d.out, b.String())
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	for _, e := range entries {
		tbl.AddRow(d.countdown(e.Remaining), e.Name, d.faint.Sprint(e.Summary))
	}
	fmt.Fprintln(&b, tbl)
	b.WriteString("\n")
	_, _ = io.WriteString(d.out, b.String())
}

func (d *Display) countdown(remaining string) string {
	if strings.HasPrefix(remaining, "00:00:") {
		return d.soon.Sprint(remaining)
	}
	return d.pending.Sprint(remaining)
}
