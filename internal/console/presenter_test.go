package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

func TestFormat(t *testing.T) {
	out := Format(domain.View{
		Closable: []domain.AppEntry{
			{ImageName: "app.exe", PID: 100},
			{ImageName: "notepad.exe", PID: 2048},
		},
		Allow:  []string{"Code.exe"},
		Hotkey: "ctrl+alt+j",
	})

	assert.Contains(t, out, "Open apps (2)")
	assert.Contains(t, out, "100")
	assert.Regexp(t, `2048\s+notepad\s+notepad\.exe`, out)
	assert.Contains(t, out, "  - Code.exe\n", "lists show the name the remove command matches")
	assert.Contains(t, out, "Kill list:\n  (empty)")
	assert.Contains(t, out, "Press ctrl+alt+j")
	assert.NotContains(t, out, "[show all]")
}

func TestFormat_Notice(t *testing.T) {
	assert.NotContains(t, Format(domain.View{}), "> ")
	assert.Contains(t, Format(domain.View{Notice: "allow-add app.exe"}), "\n> allow-add app.exe\n")
}

func TestFormat_ShowAllAndEmpty(t *testing.T) {
	out := Format(domain.View{ShowAll: true})

	assert.Contains(t, out, "Open apps (0) [show all]")
	assert.Contains(t, out, "(none)")
}

func TestFormat_SanitizesNames(t *testing.T) {
	out := Format(domain.View{Closable: []domain.AppEntry{{ImageName: "evil\x1b[2J.exe", PID: 1}}})

	assert.NotContains(t, out, "\x1b")
	assert.Contains(t, out, `evil\x1b[2J`)
}

func TestPresenter_SkipsUnchangedViews(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf, false)
	v := domain.View{Closable: []domain.AppEntry{{ImageName: "app.exe", PID: 100}}}

	p.Render(v)
	p.Render(v)
	assert.Equal(t, 1, strings.Count(buf.String(), "Open apps"))

	v.ShowAll = true
	p.Render(v)
	assert.Equal(t, 2, strings.Count(buf.String(), "Open apps"))
}

func TestPresenter_ClearsScreenOnRedraw(t *testing.T) {
	var buf bytes.Buffer
	p := NewPresenter(&buf, true)

	p.Render(domain.View{})
	assert.True(t, strings.HasPrefix(buf.String(), clearScreen))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"app.exe", "app.exe"},
		{"café.exe", "café.exe"},
		{"a\x00b", `a\x00b`},
		{"bad\xff", `bad\xff`},
		{"tab\there", `tab\x09here`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), tt.in)
	}
}
