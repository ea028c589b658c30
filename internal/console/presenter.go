// Package console is the terminal front end of the run loop: it renders the
// closable set and lists, and turns typed commands into intents.
package console

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/policy"
)

// Presenter implements domain.Presenter on a terminal. It only writes when
// the rendered view differs from the previous one.
type Presenter struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
	last  string
}

// clearScreen homes the cursor and erases the display.
const clearScreen = "\x1b[H\x1b[2J"

// NewPresenter creates a presenter writing to w. When clear is set every
// redraw replaces the previous screen instead of scrolling below it.
func NewPresenter(w io.Writer, clear bool) *Presenter {
	return &Presenter{w: w, clear: clear}
}

func (p *Presenter) Render(v domain.View) {
	out := Format(v)

	p.mu.Lock()
	defer p.mu.Unlock()
	if out == p.last {
		return
	}
	p.last = out
	if p.clear {
		io.WriteString(p.w, clearScreen)
	}
	io.WriteString(p.w, out)
}

// Format renders a view. Apps are listed by name without extension next to
// the full image name, which is what the allow and kill commands take
// (the bare name also works when it is unambiguous).
func Format(v domain.View) string {
	var buf bytes.Buffer

	mode := ""
	if v.ShowAll {
		mode = " [show all]"
	}
	fmt.Fprintf(&buf, "\n=== Open apps (%d)%s ===\n", len(v.Closable), mode)
	if len(v.Closable) == 0 {
		buf.WriteString("  (none)\n")
	} else {
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  PID\tNAME\tIMAGE")
		for _, e := range v.Closable {
			fmt.Fprintf(tw, "  %d\t%s\t%s\n", e.PID, Sanitize(policy.StripExtension(e.ImageName)), Sanitize(e.ImageName))
		}
		tw.Flush()
	}

	writeList(&buf, "Allow list", v.Allow)
	writeList(&buf, "Kill list", v.Kill)

	if v.Notice != "" {
		fmt.Fprintf(&buf, "\n> %s\n", Sanitize(v.Notice))
	}
	if v.Hotkey != "" {
		fmt.Fprintf(&buf, "\nPress %s to close everything above. Type 'help' for commands.\n", v.Hotkey)
	}
	return buf.String()
}

func writeList(buf *bytes.Buffer, title string, names []string) {
	fmt.Fprintf(buf, "\n%s:\n", title)
	if len(names) == 0 {
		buf.WriteString("  (empty)\n")
		return
	}
	for _, n := range names {
		fmt.Fprintf(buf, "  - %s\n", Sanitize(n))
	}
}

var _ domain.Presenter = (*Presenter)(nil)
