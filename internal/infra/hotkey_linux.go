//go:build linux

package infra

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// X11HotkeyFacility grabs the hotkey on the root window with its own X
// connection and runs the xgbutil event loop while serving.
type X11HotkeyFacility struct {
	xu *xgbutil.XUtil

	mu         sync.Mutex
	registered bool
	onMessage  func(domain.HotkeyMessage)
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewHotkeyFacility opens a dedicated X connection for key grabs.
func NewHotkeyFacility() (domain.HotkeyFacility, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	// Required before any key grab.
	keybind.Initialize(xu)
	return &X11HotkeyFacility{xu: xu, stop: make(chan struct{})}, nil
}

// keySequence converts a hotkey to xgbutil syntax, e.g. "control-mod1-j".
func keySequence(hk domain.Hotkey) string {
	var parts []string
	if hk.Modifiers&domain.ModControl != 0 {
		parts = append(parts, "control")
	}
	if hk.Modifiers&domain.ModAlt != 0 {
		parts = append(parts, "mod1")
	}
	if hk.Modifiers&domain.ModShift != 0 {
		parts = append(parts, "shift")
	}
	if hk.Modifiers&domain.ModWin != 0 {
		parts = append(parts, "mod4")
	}
	key := hk.Key
	if len(key) > 1 {
		key = strings.ToUpper(key[:1]) + key[1:] // keysym "F5"
	}
	return strings.Join(append(parts, key), "-")
}

func (f *X11HotkeyFacility) Register(hk domain.Hotkey) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		f.mu.Lock()
		handler := f.onMessage
		f.mu.Unlock()
		if handler != nil {
			handler(domain.HotkeyMessage{Hotkey: true, ID: domain.KillHotkeyID})
		}
	}).Connect(f.xu, f.xu.RootWin(), keySequence(hk), true)
	if err != nil {
		return fmt.Errorf("grab %s: %w", hk, err)
	}
	f.mu.Lock()
	f.registered = true
	f.mu.Unlock()
	return nil
}

// Unregister releases the grab and closes the connection.
func (f *X11HotkeyFacility) Unregister() error {
	f.mu.Lock()
	registered := f.registered
	f.registered = false
	f.mu.Unlock()

	if registered {
		keybind.Detach(f.xu, f.xu.RootWin())
	}
	f.xu.Conn().Close()
	return nil
}

// Serve runs the X event loop until Quit. Key press callbacks run on the
// event loop goroutine between the before and after pings.
func (f *X11HotkeyFacility) Serve(onMessage func(domain.HotkeyMessage)) error {
	f.mu.Lock()
	f.onMessage = onMessage
	f.mu.Unlock()

	before, after, quit := xevent.MainPing(f.xu)
	for {
		select {
		case <-before:
			select {
			case <-after:
			case <-f.stop:
				return nil
			}
		case <-quit:
			return nil
		case <-f.stop:
			return nil
		}
	}
}

func (f *X11HotkeyFacility) Quit() {
	f.stopOnce.Do(func() {
		close(f.stop)
		xevent.Quit(f.xu)
	})
}

var _ domain.HotkeyFacility = (*X11HotkeyFacility)(nil)
