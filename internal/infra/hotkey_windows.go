//go:build windows

package infra

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

var (
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	modNoRepeat = 0x4000
	wmHotkey    = 0x0312
	wmQuit      = 0x0012
)

type winMsg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// Win32HotkeyFacility registers a thread hotkey and pumps that thread's
// message queue. It must be created on the goroutine that will Serve it,
// with the OS thread locked.
type Win32HotkeyFacility struct {
	threadID   uint32
	mu         sync.Mutex
	registered bool
}

// NewHotkeyFacility binds a facility to the calling OS thread.
func NewHotkeyFacility() (domain.HotkeyFacility, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &Win32HotkeyFacility{threadID: windows.GetCurrentThreadId()}, nil
}

func (f *Win32HotkeyFacility) Register(hk domain.Hotkey) error {
	r, _, err := procRegisterHotKey.Call(
		0,
		domain.KillHotkeyID,
		uintptr(hk.Modifiers)|modNoRepeat,
		uintptr(hk.VirtualKey()),
	)
	if r == 0 {
		return fmt.Errorf("RegisterHotKey %s: %w", hk, err)
	}
	f.mu.Lock()
	f.registered = true
	f.mu.Unlock()
	return nil
}

func (f *Win32HotkeyFacility) Unregister() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.registered {
		return nil
	}
	f.registered = false
	r, _, err := procUnregisterHotKey.Call(0, domain.KillHotkeyID)
	if r == 0 {
		return fmt.Errorf("UnregisterHotKey: %w", err)
	}
	return nil
}

// Serve runs GetMessage until WM_QUIT.
func (f *Win32HotkeyFacility) Serve(onMessage func(domain.HotkeyMessage)) error {
	var m winMsg
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case -1:
			if err == nil || errors.Is(err, windows.ERROR_SUCCESS) {
				err = errors.New("unknown error")
			}
			return fmt.Errorf("GetMessage: %w", err)
		case 0:
			return nil
		}
		onMessage(domain.HotkeyMessage{
			Hotkey: m.message == wmHotkey,
			ID:     int(m.wParam),
		})
	}
}

// Quit posts WM_QUIT to the facility's thread. Safe from any goroutine.
func (f *Win32HotkeyFacility) Quit() {
	procPostThreadMessageW.Call(uintptr(f.threadID), wmQuit, 0, 0)
}

var _ domain.HotkeyFacility = (*Win32HotkeyFacility)(nil)
