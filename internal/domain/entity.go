// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"sort"
	"time"
)

// ErrUnsupportedPlatform is returned by OS adapters that have no implementation
// for the running platform.
var ErrUnsupportedPlatform = errors.New("not supported on this platform")

// ExStyleToolWindow is the extended window style bit marking auxiliary UI
// (floating toolbars and the like). Same value as Win32 WS_EX_TOOLWINDOW.
const ExStyleToolWindow uint32 = 0x00000080

// WindowHandle identifies a top-level window. It is only valid while the
// window exists and must never be kept across poll cycles.
type WindowHandle uintptr

// ProcessRecord is one row of the OS process table.
type ProcessRecord struct {
	PID       uint32
	ImageName string // e.g. "app.exe"
}

// AppEntry is a (name, pid) pair in a candidate or closable set.
type AppEntry struct {
	ImageName string
	PID       uint32
}

// AppSet maps image name to pid. Processes sharing an image name collapse to
// the last one put into the set.
type AppSet map[string]uint32

// NewAppSet creates an empty set.
func NewAppSet() AppSet {
	return make(AppSet)
}

// Put records pid for name, replacing any pid seen earlier for that name.
func (s AppSet) Put(name string, pid uint32) {
	s[name] = pid
}

// Without returns a copy of the set minus every name for which drop is true.
func (s AppSet) Without(drop func(name string) bool) AppSet {
	out := make(AppSet, len(s))
	for name, pid := range s {
		if drop(name) {
			continue
		}
		out[name] = pid
	}
	return out
}

// Filter returns a copy of the set holding only entries for which keep is true.
func (s AppSet) Filter(keep func(AppEntry) bool) AppSet {
	out := make(AppSet, len(s))
	for name, pid := range s {
		if keep(AppEntry{ImageName: name, PID: pid}) {
			out[name] = pid
		}
	}
	return out
}

// Entries returns the set sorted by image name.
func (s AppSet) Entries() []AppEntry {
	entries := make([]AppEntry, 0, len(s))
	for name, pid := range s {
		entries = append(entries, AppEntry{ImageName: name, PID: pid})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ImageName < entries[j].ImageName
	})
	return entries
}

// ListState is the persisted form of the allow/kill lists.
// Missing fields decode to empty lists and ShowAll=false.
type ListState struct {
	Allow   []string
	Kill    []string
	ShowAll bool
}

// CloseTarget is one process the dispatcher should ask to close.
type CloseTarget struct {
	PID       uint32
	ImageName string
	Force     bool // Kill List entry: skip the visibility check
}

// ScanResult is the outcome of one poll cycle.
type ScanResult struct {
	Snapshot   []ProcessRecord // unfiltered process table
	Candidates AppSet          // processes with a user-visible window
	Closable   AppSet          // candidates minus allow list minus heuristic rejects
	ScannedAt  time.Time
	DurationMs int64
}

// SweepTrigger records why a dispatch pass ran.
type SweepTrigger string

const (
	TriggerHotkey SweepTrigger = "hotkey"
	TriggerManual SweepTrigger = "manual"
)

// SweepResult captures what happened during a single dispatch pass.
// Posting a close request is not a confirmation that anything closed.
type SweepResult struct {
	Trigger    SweepTrigger
	Targets    []CloseTarget
	Posted     []uint32 // pids whose window got a close request
	NoWindow   []uint32 // pids with no top-level window at dispatch time
	Hidden     []uint32 // pids whose window failed the visibility check
	Errors     []error
	ExecutedAt time.Time
	DurationMs int64
}

// HotkeyEvent is emitted by the hotkey listener.
type HotkeyEvent int

const (
	// HotkeyKill asks the polling loop for one bulk-close pass.
	HotkeyKill HotkeyEvent = iota + 1
)

func (e HotkeyEvent) String() string {
	switch e {
	case HotkeyKill:
		return "kill"
	default:
		return "unknown"
	}
}

// KillHotkeyID is the registration id of the bulk-close hotkey.
const KillHotkeyID = 1

// HotkeyMessage is one message pulled from the OS input queue by a hotkey facility.
type HotkeyMessage struct {
	Hotkey bool // true for a hotkey notification, false for anything else
	ID     int  // registration id, meaningful when Hotkey is true
}

// IntentKind enumerates user requests coming from the presentation layer.
type IntentKind string

const (
	IntentAllowAdd      IntentKind = "allow-add"
	IntentAllowRemove   IntentKind = "allow-remove"
	IntentKillAdd       IntentKind = "kill-add"
	IntentKillRemove    IntentKind = "kill-remove"
	IntentCloseAll      IntentKind = "close-all"
	IntentToggleShowAll IntentKind = "toggle-show-all"
	IntentQuit          IntentKind = "quit"
)

// Intent is a user request for the polling loop.
type Intent struct {
	Kind IntentKind
	Name string // list entry for the add/remove kinds
}

// View is what the presentation layer gets to render after each cycle.
type View struct {
	Closable []AppEntry
	Allow    []string
	Kill     []string
	ShowAll  bool
	Hotkey   string
	Notice   string // outcome of the last command, if worth showing
}
