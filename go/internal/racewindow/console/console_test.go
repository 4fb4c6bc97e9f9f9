package console

import (
	"bytes"
	"testing"

	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/stretchr/testify/assert"
)

func TestRenderWritesTable(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Render([]racewindow.Entry{
		{ID: "a", Name: "Churchill Downs Classic", Remaining: "00:00:42", Summary: "8 horses • Dirt track"},
		{ID: "b", Name: "Belmont Stakes", Remaining: "02:15:00"},
	})

	out := buf.String()
	assert.Contains(t, out, "Next races")
	assert.Contains(t, out, "00:00:42")
	assert.Contains(t, out, "Churchill Downs Classic")
	assert.Contains(t, out, "8 horses • Dirt track")
	assert.Contains(t, out, "02:15:00")
	assert.NotContains(t, out, "\033[", "non-terminal output must be plain")
}

func TestRenderEmptyWindow(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Render(nil)

	assert.Contains(t, buf.String(), "no upcoming races")
}

func TestRefreshIsSilentWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Refresh([]racewindow.Entry{{ID: "a", Name: "Race A", Remaining: "00:01:00"}})

	assert.Empty(t, buf.String())
}
