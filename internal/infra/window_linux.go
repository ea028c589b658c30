//go:build linux

package infra

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// allDesktops is the _NET_WM_DESKTOP value of sticky windows.
const allDesktops = 0xFFFFFFFF

// Window types and states that behave like a Win32 tool window: they have
// no taskbar entry of their own.
var (
	toolWindowTypes = map[string]bool{
		"_NET_WM_WINDOW_TYPE_UTILITY":      true,
		"_NET_WM_WINDOW_TYPE_TOOLBAR":      true,
		"_NET_WM_WINDOW_TYPE_DOCK":         true,
		"_NET_WM_WINDOW_TYPE_DESKTOP":      true,
		"_NET_WM_WINDOW_TYPE_MENU":         true,
		"_NET_WM_WINDOW_TYPE_SPLASH":       true,
		"_NET_WM_WINDOW_TYPE_NOTIFICATION": true,
	}
	toolWindowStates = map[string]bool{
		"_NET_WM_STATE_SKIP_TASKBAR": true,
	}
)

// X11WindowDirectory implements domain.WindowDirectory over an EWMH
// compliant window manager. Top-level windows are the managed clients
// from _NET_CLIENT_LIST.
type X11WindowDirectory struct {
	xu *xgbutil.XUtil
}

// NewWindowDirectory connects to $DISPLAY.
func NewWindowDirectory() (domain.WindowDirectory, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return &X11WindowDirectory{xu: xu}, nil
}

func xwin(h domain.WindowHandle) xproto.Window {
	return xproto.Window(h)
}

func (d *X11WindowDirectory) EnumerateTopLevel(visit func(domain.WindowHandle) bool) error {
	clients, err := ewmh.ClientListGet(d.xu)
	if err != nil {
		return fmt.Errorf("failed to get client list: %w", err)
	}
	for _, w := range clients {
		if !visit(domain.WindowHandle(w)) {
			return nil
		}
	}
	return nil
}

func (d *X11WindowDirectory) OwnerPID(h domain.WindowHandle) uint32 {
	pid, err := ewmh.WmPidGet(d.xu, xwin(h))
	if err != nil {
		return 0
	}
	return uint32(pid)
}

// IsVisible treats iconified windows as visible, like a minimized Win32
// window. Without WM_STATE it falls back to the map state.
func (d *X11WindowDirectory) IsVisible(h domain.WindowHandle) bool {
	if st, err := icccm.WmStateGet(d.xu, xwin(h)); err == nil {
		return st.State != icccm.StateWithdrawn
	}
	attrs, err := xproto.GetWindowAttributes(d.xu.Conn(), xwin(h)).Reply()
	return err == nil && attrs.MapState == xproto.MapStateViewable
}

func (d *X11WindowDirectory) ExtendedStyle(h domain.WindowHandle) uint32 {
	if states, err := ewmh.WmStateGet(d.xu, xwin(h)); err == nil {
		for _, s := range states {
			if toolWindowStates[s] {
				return domain.ExStyleToolWindow
			}
		}
	}
	if types, err := ewmh.WmWindowTypeGet(d.xu, xwin(h)); err == nil {
		for _, t := range types {
			if toolWindowTypes[t] {
				return domain.ExStyleToolWindow
			}
		}
	}
	return 0
}

// IsCloaked reports windows parked on another virtual desktop.
func (d *X11WindowDirectory) IsCloaked(h domain.WindowHandle) bool {
	desktop, err := ewmh.WmDesktopGet(d.xu, xwin(h))
	if err != nil || desktop == allDesktops {
		return false
	}
	current, err := ewmh.CurrentDesktopGet(d.xu)
	if err != nil {
		return false
	}
	return desktop != current
}

// RootOwner follows WM_TRANSIENT_FOR to the top of the chain.
func (d *X11WindowDirectory) RootOwner(h domain.WindowHandle) domain.WindowHandle {
	cur := xwin(h)
	seen := map[xproto.Window]bool{cur: true}
	for i := 0; i < 64; i++ {
		parent, err := icccm.WmTransientForGet(d.xu, cur)
		if err != nil || parent == 0 || parent == d.xu.RootWin() || seen[parent] {
			break
		}
		seen[parent] = true
		cur = parent
	}
	return domain.WindowHandle(cur)
}

// LastActivePopup has no X11 counterpart; transient dialogs are already
// separate clients, so every window is its own popup.
func (d *X11WindowDirectory) LastActivePopup(h domain.WindowHandle) domain.WindowHandle {
	return h
}

// PostClose sends _NET_CLOSE_WINDOW to the root window. The message is
// built by hand; the ewmh request helpers type-assert their data and panic
// on some argument types.
func (d *X11WindowDirectory) PostClose(h domain.WindowHandle) error {
	const name = "_NET_CLOSE_WINDOW"
	atom, err := xproto.InternAtom(d.xu.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", name, err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xwin(h),
		Type:   atom.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, sourceIndication, 0, 0, 0}),
	}
	return xproto.SendEventChecked(
		d.xu.Conn(),
		false,
		d.xu.RootWin(),
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

var _ domain.WindowDirectory = (*X11WindowDirectory)(nil)
