package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/policy"
)

// mockScanner implements domain.Scanner for testing
type mockScanner struct {
	mu     sync.Mutex
	result *domain.ScanResult
	err    error
	calls  int
}

func (m *mockScanner) Scan(ctx context.Context, lists domain.ListView) (*domain.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockDispatcher implements domain.Dispatcher for testing
type mockDispatcher struct {
	mu    sync.Mutex
	calls []domain.SweepTrigger
}

func (m *mockDispatcher) CloseAll(trigger domain.SweepTrigger, targets []domain.CloseTarget, showAll bool) *domain.SweepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, trigger)
	return &domain.SweepResult{Trigger: trigger, Targets: targets}
}

func (m *mockDispatcher) triggers() []domain.SweepTrigger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SweepTrigger(nil), m.calls...)
}

// memStore implements domain.ListStore for testing
type memStore struct {
	mu    sync.Mutex
	state domain.ListState
	saves int
}

func (m *memStore) Load() (domain.ListState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memStore) Save(state domain.ListState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) saved() (domain.ListState, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.saves
}

// recordingPresenter implements domain.Presenter for testing
type recordingPresenter struct {
	mu    sync.Mutex
	views []domain.View
}

func (p *recordingPresenter) Render(v domain.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
}

func (p *recordingPresenter) last() (domain.View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.views) == 0 {
		return domain.View{}, false
	}
	return p.views[len(p.views)-1], true
}

type sweeperHarness struct {
	scanner    *mockScanner
	dispatcher *mockDispatcher
	store      *memStore
	presenter  *recordingPresenter
	lists      *policy.Lists
	hotkeys    chan domain.HotkeyEvent
	intents    chan domain.Intent
	sweeper    *Sweeper
}

func newSweeperHarness() *sweeperHarness {
	h := &sweeperHarness{
		scanner: &mockScanner{result: &domain.ScanResult{
			Closable: domain.AppSet{"app.exe": 100},
		}},
		dispatcher: &mockDispatcher{},
		store:      &memStore{},
		presenter:  &recordingPresenter{},
		lists:      policy.NewLists(),
		hotkeys:    make(chan domain.HotkeyEvent, 16),
		intents:    make(chan domain.Intent),
	}
	config := DefaultSweeperConfig()
	config.PollInterval = time.Hour
	h.sweeper = NewSweeper(config, h.scanner, h.dispatcher, h.lists, h.store,
		h.presenter, h.hotkeys, h.intents, zap.NewNop())
	return h
}

func (h *sweeperHarness) run(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.sweeper.Run(ctx) }()
	return done
}

func TestDefaultSweeperConfig(t *testing.T) {
	config := DefaultSweeperConfig()

	assert.Equal(t, time.Second, config.PollInterval)
	assert.Equal(t, domain.DefaultHotkey, config.Hotkey)
}

func TestSweeper_OneSweepPerQueuedHotkey(t *testing.T) {
	h := newSweeperHarness()
	for i := 0; i < 3; i++ {
		h.hotkeys <- domain.HotkeyKill
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	assert.Eventually(t, func() bool { return len(h.dispatcher.triggers()) == 3 },
		time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []domain.SweepTrigger{domain.TriggerHotkey, domain.TriggerHotkey, domain.TriggerHotkey},
		h.dispatcher.triggers())
	assert.Empty(t, h.hotkeys)

	_, saves := h.store.saved()
	assert.Equal(t, 1, saves, "lists are saved on shutdown")
}

func TestSweeper_ScanFailureDropsQueuedHotkeys(t *testing.T) {
	h := newSweeperHarness()
	h.scanner.err = errors.New("snapshot failed")
	h.hotkeys <- domain.HotkeyKill
	h.hotkeys <- domain.HotkeyKill

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	assert.Eventually(t, func() bool { return len(h.hotkeys) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Empty(t, h.dispatcher.triggers())
	_, rendered := h.presenter.last()
	assert.False(t, rendered)
}

func TestSweeper_RendersView(t *testing.T) {
	h := newSweeperHarness()
	h.lists.Kill.Add("figma.exe")

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	assert.Eventually(t, func() bool { _, ok := h.presenter.last(); return ok },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done

	view, _ := h.presenter.last()
	assert.Equal(t, []domain.AppEntry{{ImageName: "app.exe", PID: 100}}, view.Closable)
	assert.Equal(t, []string{"figma.exe"}, view.Kill)
	assert.Equal(t, domain.DefaultHotkey, view.Hotkey)
}

func TestSweeper_Intents(t *testing.T) {
	h := newSweeperHarness()
	done := h.run(context.Background())

	h.intents <- domain.Intent{Kind: domain.IntentAllowAdd, Name: " Code.exe "}
	h.intents <- domain.Intent{Kind: domain.IntentKillAdd, Name: "figma.exe"}
	h.intents <- domain.Intent{Kind: domain.IntentKillAdd, Name: "steam.exe"}
	h.intents <- domain.Intent{Kind: domain.IntentKillRemove, Name: "steam.exe"}
	h.intents <- domain.Intent{Kind: domain.IntentAllowAdd, Name: "   "}
	h.intents <- domain.Intent{Kind: domain.IntentToggleShowAll}
	h.intents <- domain.Intent{Kind: domain.IntentCloseAll}
	h.intents <- domain.Intent{Kind: domain.IntentQuit}

	require.NoError(t, <-done)

	state, saves := h.store.saved()
	assert.Equal(t, []string{"Code.exe"}, state.Allow)
	assert.Equal(t, []string{"figma.exe"}, state.Kill)
	assert.True(t, state.ShowAll)
	assert.GreaterOrEqual(t, saves, 5)
	assert.Equal(t, []domain.SweepTrigger{domain.TriggerManual}, h.dispatcher.triggers())
}

func TestSweeper_ClosedIntentChannelKeepsPolling(t *testing.T) {
	h := newSweeperHarness()
	close(h.intents)

	ctx, cancel := context.WithCancel(context.Background())
	done := h.run(ctx)

	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("sweeper exited early: %v", err)
	default:
	}
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSweeper_CloseAllAfterFailedRescanDoesNotDispatch(t *testing.T) {
	h := newSweeperHarness()
	ctx := context.Background()

	require.True(t, h.sweeper.cycle(ctx))

	h.scanner.err = errors.New("snapshot failed")
	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentCloseAll})

	assert.Empty(t, h.dispatcher.triggers(), "no close requests against the previous cycle's pids")
	assert.Nil(t, h.sweeper.last)

	h.scanner.err = nil
	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentCloseAll})
	assert.Equal(t, []domain.SweepTrigger{domain.TriggerManual}, h.dispatcher.triggers())
}

func TestSweeper_EditsAcceptDisplayedNames(t *testing.T) {
	h := newSweeperHarness()
	h.scanner.result = &domain.ScanResult{
		Snapshot: []domain.ProcessRecord{{PID: 100, ImageName: "app.exe"}, {PID: 200, ImageName: "figma.exe"}},
		Closable: domain.AppSet{"app.exe": 100, "figma.exe": 200},
	}
	ctx := context.Background()
	require.True(t, h.sweeper.cycle(ctx))

	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentAllowAdd, Name: "app"})
	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentKillAdd, Name: "figma"})

	state, _ := h.store.saved()
	assert.Equal(t, []string{"app.exe"}, state.Allow)
	assert.Equal(t, []string{"figma.exe"}, state.Kill)

	view, _ := h.presenter.last()
	assert.Equal(t, "kill-add figma.exe", view.Notice)

	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentAllowRemove, Name: "app"})
	state, _ = h.store.saved()
	assert.Empty(t, state.Allow)
}

func TestSweeper_IgnoredEditIsShown(t *testing.T) {
	h := newSweeperHarness()
	ctx := context.Background()
	require.True(t, h.sweeper.cycle(ctx))

	h.sweeper.apply(ctx, domain.Intent{Kind: domain.IntentKillRemove, Name: "steam"})

	view, ok := h.presenter.last()
	require.True(t, ok)
	assert.Equal(t, `ignored kill-remove "steam"`, view.Notice)
	_, saves := h.store.saved()
	assert.Zero(t, saves)
}
