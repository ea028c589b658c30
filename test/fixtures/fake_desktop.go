// Package fixtures provides test helpers shared by package tests.
package fixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// FakeWindow is the synthetic OS state of one top-level window.
// Zero Owner means the window is its own root owner; zero Popup means it is
// its own last active popup.
type FakeWindow struct {
	Handle  domain.WindowHandle
	PID     uint32
	Owner   domain.WindowHandle
	Popup   domain.WindowHandle
	Visible bool
	Cloaked bool
	Tool    bool
}

// FakeDesktop implements domain.WindowDirectory and domain.ProcessSnapshotter
// over in-memory state. Safe for concurrent use.
type FakeDesktop struct {
	mu         sync.Mutex
	processes  []domain.ProcessRecord
	windows    map[domain.WindowHandle]*FakeWindow
	order      []domain.WindowHandle
	next       domain.WindowHandle
	closed     []domain.WindowHandle
	postErr    map[domain.WindowHandle]error
	snapErr    error
	enumCalls  int
	enumVisits int
}

// NewFakeDesktop creates an empty desktop.
func NewFakeDesktop() *FakeDesktop {
	return &FakeDesktop{
		windows: make(map[domain.WindowHandle]*FakeWindow),
		postErr: make(map[domain.WindowHandle]error),
		next:    0x1000,
	}
}

// AddProcess adds a process without any window.
func (d *FakeDesktop) AddProcess(pid uint32, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processes = append(d.processes, domain.ProcessRecord{PID: pid, ImageName: name})
}

// AddApp adds a process owning one plain visible window and returns its handle.
func (d *FakeDesktop) AddApp(pid uint32, name string) domain.WindowHandle {
	d.AddProcess(pid, name)
	return d.AddWindow(FakeWindow{PID: pid, Visible: true})
}

// AddWindow adds a window; a zero Handle gets the next free one.
func (d *FakeDesktop) AddWindow(w FakeWindow) domain.WindowHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w.Handle == 0 {
		w.Handle = d.next
		d.next += 0x10
	}
	win := w
	d.windows[w.Handle] = &win
	d.order = append(d.order, w.Handle)
	return w.Handle
}

// Window returns the mutable state of h for tests that tweak it.
func (d *FakeDesktop) Window(h domain.WindowHandle) *FakeWindow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[h]
}

// RemoveWindow makes h disappear, as if its app exited.
func (d *FakeDesktop) RemoveWindow(h domain.WindowHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.windows, h)
	for i, o := range d.order {
		if o == h {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// FailPost makes PostClose(h) return err.
func (d *FakeDesktop) FailPost(h domain.WindowHandle, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postErr[h] = err
}

// FailSnapshot makes Snapshot return err.
func (d *FakeDesktop) FailSnapshot(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapErr = err
}

// Closed returns every handle that received a close request, in order.
func (d *FakeDesktop) Closed() []domain.WindowHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.WindowHandle(nil), d.closed...)
}

// EnumCalls returns how many enumerations ran.
func (d *FakeDesktop) EnumCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enumCalls
}

// EnumVisits returns how many windows were handed to enumeration callbacks.
func (d *FakeDesktop) EnumVisits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enumVisits
}

// --- domain.ProcessSnapshotter ---

func (d *FakeDesktop) Snapshot(ctx context.Context) ([]domain.ProcessRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapErr != nil {
		return nil, d.snapErr
	}
	return append([]domain.ProcessRecord(nil), d.processes...), nil
}

// --- domain.WindowDirectory ---

func (d *FakeDesktop) EnumerateTopLevel(visit func(domain.WindowHandle) bool) error {
	d.mu.Lock()
	d.enumCalls++
	order := append([]domain.WindowHandle(nil), d.order...)
	d.mu.Unlock()

	for _, h := range order {
		d.mu.Lock()
		d.enumVisits++
		d.mu.Unlock()
		if !visit(h) {
			return nil
		}
	}
	return nil
}

func (d *FakeDesktop) OwnerPID(h domain.WindowHandle) uint32 {
	if w := d.get(h); w != nil {
		return w.PID
	}
	return 0
}

func (d *FakeDesktop) IsVisible(h domain.WindowHandle) bool {
	w := d.get(h)
	return w != nil && w.Visible
}

func (d *FakeDesktop) ExtendedStyle(h domain.WindowHandle) uint32 {
	if w := d.get(h); w != nil && w.Tool {
		return domain.ExStyleToolWindow
	}
	return 0
}

func (d *FakeDesktop) IsCloaked(h domain.WindowHandle) bool {
	w := d.get(h)
	return w != nil && w.Cloaked
}

func (d *FakeDesktop) RootOwner(h domain.WindowHandle) domain.WindowHandle {
	w := d.get(h)
	if w == nil {
		return 0
	}
	if w.Owner == 0 {
		return h
	}
	return w.Owner
}

func (d *FakeDesktop) LastActivePopup(h domain.WindowHandle) domain.WindowHandle {
	w := d.get(h)
	if w == nil || w.Popup == 0 {
		return h
	}
	return w.Popup
}

func (d *FakeDesktop) PostClose(h domain.WindowHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.postErr[h]; err != nil {
		return err
	}
	if _, ok := d.windows[h]; !ok {
		return errors.New("invalid window handle")
	}
	d.closed = append(d.closed, h)
	return nil
}

func (d *FakeDesktop) get(h domain.WindowHandle) *FakeWindow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[h]
}

// Ensure FakeDesktop implements both ports.
var _ domain.WindowDirectory = (*FakeDesktop)(nil)
var _ domain.ProcessSnapshotter = (*FakeDesktop)(nil)
