package daemon

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// FacilityFactory creates a hotkey facility bound to the calling OS thread.
type FacilityFactory func() (domain.HotkeyFacility, error)

// HotkeyListener owns the global hotkey registration. The facility is
// created, registered, served and unregistered on one locked OS thread; the
// only thing that leaves that thread is a HotkeyEvent on the out channel.
type HotkeyListener struct {
	hotkey  domain.Hotkey
	factory FacilityFactory
	logger  *zap.Logger

	mu       sync.Mutex
	facility domain.HotkeyFacility
	started  bool
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHotkeyListener creates a listener for hk.
func NewHotkeyListener(hk domain.Hotkey, factory FacilityFactory, logger *zap.Logger) *HotkeyListener {
	return &HotkeyListener{
		hotkey:  hk,
		factory: factory,
		logger:  logger,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the listener goroutine and waits until the hotkey is
// registered. A registration failure is returned and nothing keeps running.
func (l *HotkeyListener) Start(out chan<- domain.HotkeyEvent) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return fmt.Errorf("hotkey listener already started")
	}
	l.started = true
	l.mu.Unlock()

	ready := make(chan error, 1)
	go l.loop(out, ready)
	return <-ready
}

func (l *HotkeyListener) loop(out chan<- domain.HotkeyEvent, ready chan<- error) {
	defer close(l.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	facility, err := l.factory()
	if err != nil {
		ready <- fmt.Errorf("hotkey facility: %w", err)
		return
	}
	if err := facility.Register(l.hotkey); err != nil {
		ready <- fmt.Errorf("register hotkey %s: %w", l.hotkey, err)
		return
	}
	defer func() {
		if err := facility.Unregister(); err != nil {
			l.logger.Warn("failed to unregister hotkey", zap.Error(err))
		} else {
			l.logger.Debug("hotkey unregistered", zap.String("hotkey", l.hotkey.String()))
		}
	}()

	l.mu.Lock()
	l.facility = facility
	l.mu.Unlock()

	l.logger.Info("hotkey registered", zap.String("hotkey", l.hotkey.String()))
	ready <- nil

	err = facility.Serve(func(msg domain.HotkeyMessage) {
		if !msg.Hotkey || msg.ID != domain.KillHotkeyID {
			return
		}
		select {
		case out <- domain.HotkeyKill:
		case <-l.quit:
		}
	})
	if err != nil {
		l.logger.Error("hotkey message loop failed", zap.Error(err))
	}
}

// Stop makes the listener goroutine exit and waits for it, including the
// unregistration. Safe to call more than once, and before Start.
func (l *HotkeyListener) Stop() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if !started {
		return
	}

	l.stopOnce.Do(func() {
		close(l.quit)
		l.mu.Lock()
		facility := l.facility
		l.mu.Unlock()
		if facility != nil {
			facility.Quit()
		}
	})
	<-l.done
}

// Done is closed once the listener goroutine has exited.
func (l *HotkeyListener) Done() <-chan struct{} {
	return l.done
}
