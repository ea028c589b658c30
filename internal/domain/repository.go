package domain

import "context"

// ProcessSnapshotter reads the OS process table.
// Implementation: uses gopsutil for cross-platform support.
type ProcessSnapshotter interface {
	// Snapshot returns every process currently visible to this session.
	Snapshot(ctx context.Context) ([]ProcessRecord, error)
}

// WindowDirectory is read access to the OS top-level window list plus the one
// write operation the system performs: a cooperative close request.
// Implementations: Win32 (user32/dwmapi) and X11 (EWMH/ICCCM).
type WindowDirectory interface {
	// EnumerateTopLevel calls visit for every top-level window.
	// Enumeration stops early when visit returns false.
	EnumerateTopLevel(visit func(WindowHandle) bool) error

	// OwnerPID returns the pid owning the window, 0 if unknown.
	OwnerPID(h WindowHandle) uint32

	// IsVisible reports raw OS visibility.
	IsVisible(h WindowHandle) bool

	// ExtendedStyle returns the extended style bitmask (see ExStyleToolWindow).
	ExtendedStyle(h WindowHandle) uint32

	// IsCloaked reports whether the compositor hides the window
	// (other virtual desktop, suspended UWP app).
	IsCloaked(h WindowHandle) bool

	// RootOwner returns the top of the window's owner chain.
	RootOwner(h WindowHandle) WindowHandle

	// LastActivePopup returns the most recently active popup owned by h,
	// or h itself when there is none.
	LastActivePopup(h WindowHandle) WindowHandle

	// PostClose posts a close request without waiting for the window.
	PostClose(h WindowHandle) error
}

// HotkeyFacility is the OS global-hotkey mechanism.
// Register, Unregister and Serve are thread-affine: call them from the
// goroutine (locked OS thread) that created the facility. Quit is the only
// method safe to call from another goroutine.
type HotkeyFacility interface {
	// Register grabs the hotkey under KillHotkeyID.
	Register(hk Hotkey) error

	// Unregister releases the grab. No-op if nothing is registered.
	Unregister() error

	// Serve blocks pulling messages from the OS input queue and hands each
	// one to onMessage. Returns nil after Quit.
	Serve(onMessage func(HotkeyMessage)) error

	// Quit makes Serve return.
	Quit()
}

// ListStore persists the allow/kill lists and the show-all flag.
// Implementations: JSON file, SQLCipher database.
type ListStore interface {
	// Load returns the saved state, or an empty state if nothing was saved.
	Load() (ListState, error)

	// Save replaces the saved state.
	Save(state ListState) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// ListView is read access to the user's lists during a cycle.
type ListView interface {
	IsAllowed(name string) bool
	IsKilled(name string) bool
	ShowAll() bool
}

// Scanner builds the candidate and closable sets for one poll cycle.
type Scanner interface {
	Scan(ctx context.Context, lists ListView) (*ScanResult, error)
}

// Dispatcher posts close requests to the windows of the given targets.
// A sweep cannot be canceled once started; it is bounded by len(targets).
type Dispatcher interface {
	CloseAll(trigger SweepTrigger, targets []CloseTarget, showAll bool) *SweepResult
}

// Presenter renders the state of the polling loop.
type Presenter interface {
	Render(v View)
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
