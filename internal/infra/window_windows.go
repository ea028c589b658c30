//go:build windows

package infra

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	dwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetAncestor              = user32.NewProc("GetAncestor")
	procGetLastActivePopup       = user32.NewProc("GetLastActivePopup")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procDwmGetWindowAttribute    = dwmapi.NewProc("DwmGetWindowAttribute")
)

const (
	gaRootOwner  = 3
	dwmwaCloaked = 14
	wmClose      = 0x0010
	enumContinue = 1
	enumStop     = 0
)

// gwlExStyle is GWL_EXSTYLE (-20). A variable so the conversion to uintptr
// wraps instead of failing as a constant overflow.
var gwlExStyle int32 = -20

// Windows never frees callbacks created by NewCallback, so there is exactly
// one, and enumMu serializes the visitor it forwards to.
var (
	enumMu      sync.Mutex
	enumVisitor func(domain.WindowHandle) bool
	enumStopped bool
)

var enumCallback = windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
	if enumVisitor(domain.WindowHandle(hwnd)) {
		return enumContinue
	}
	enumStopped = true
	return enumStop
})

// Win32WindowDirectory implements domain.WindowDirectory with user32 and dwmapi.
type Win32WindowDirectory struct{}

// NewWindowDirectory returns the Win32 window directory.
func NewWindowDirectory() (domain.WindowDirectory, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &Win32WindowDirectory{}, nil
}

func (d *Win32WindowDirectory) EnumerateTopLevel(visit func(domain.WindowHandle) bool) error {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumVisitor = visit
	enumStopped = false
	defer func() { enumVisitor = nil }()

	r, _, err := procEnumWindows.Call(enumCallback, 0)
	// EnumWindows also returns FALSE when the callback stops it.
	if r == 0 && !enumStopped {
		return fmt.Errorf("EnumWindows: %w", err)
	}
	return nil
}

func (d *Win32WindowDirectory) OwnerPID(h domain.WindowHandle) uint32 {
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	return pid
}

func (d *Win32WindowDirectory) IsVisible(h domain.WindowHandle) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

func (d *Win32WindowDirectory) ExtendedStyle(h domain.WindowHandle) uint32 {
	r, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(gwlExStyle))
	return uint32(r)
}

func (d *Win32WindowDirectory) IsCloaked(h domain.WindowHandle) bool {
	if procDwmGetWindowAttribute.Find() != nil {
		return false
	}
	var cloaked uint32
	hr, _, _ := procDwmGetWindowAttribute.Call(
		uintptr(h),
		dwmwaCloaked,
		uintptr(unsafe.Pointer(&cloaked)),
		unsafe.Sizeof(cloaked),
	)
	return hr == 0 && cloaked != 0
}

func (d *Win32WindowDirectory) RootOwner(h domain.WindowHandle) domain.WindowHandle {
	r, _, _ := procGetAncestor.Call(uintptr(h), gaRootOwner)
	return domain.WindowHandle(r)
}

func (d *Win32WindowDirectory) LastActivePopup(h domain.WindowHandle) domain.WindowHandle {
	r, _, _ := procGetLastActivePopup.Call(uintptr(h))
	return domain.WindowHandle(r)
}

// PostClose posts WM_CLOSE and returns immediately.
func (d *Win32WindowDirectory) PostClose(h domain.WindowHandle) error {
	r, _, err := procPostMessageW.Call(uintptr(h), wmClose, 0, 0)
	if r == 0 {
		return fmt.Errorf("PostMessage(WM_CLOSE) to %#x: %w", uintptr(h), err)
	}
	return nil
}

var _ domain.WindowDirectory = (*Win32WindowDirectory)(nil)
