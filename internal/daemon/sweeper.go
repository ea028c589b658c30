// Package daemon runs the long-lived parts of expurgate: the polling sweep
// loop and the global hotkey listener.
package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/policy"
	"github.com/eliteGoblin/expurgate/internal/usecase"
)

// SweeperConfig holds sweep loop configuration.
type SweeperConfig struct {
	PollInterval time.Duration // How often to rescan (default 1s)
	Hotkey       string        // Shown to the user; registration is the listener's job
}

// DefaultSweeperConfig returns default sweep loop configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		PollInterval: policy.DefaultPollInterval,
		Hotkey:       domain.DefaultHotkey,
	}
}

// Sweeper is the polling loop. It owns the lists and the latest scan; other
// goroutines reach it only through the hotkey and intent channels.
type Sweeper struct {
	config     SweeperConfig
	scanner    domain.Scanner
	dispatcher domain.Dispatcher
	lists      *policy.Lists
	store      domain.ListStore
	presenter  domain.Presenter
	hotkeys    <-chan domain.HotkeyEvent
	intents    <-chan domain.Intent
	logger     *zap.Logger

	last   *domain.ScanResult
	notice string
}

// NewSweeper creates a sweep loop. hotkeys and intents may be nil.
func NewSweeper(
	config SweeperConfig,
	scanner domain.Scanner,
	dispatcher domain.Dispatcher,
	lists *policy.Lists,
	store domain.ListStore,
	presenter domain.Presenter,
	hotkeys <-chan domain.HotkeyEvent,
	intents <-chan domain.Intent,
	logger *zap.Logger,
) *Sweeper {
	if config.PollInterval <= 0 {
		config.PollInterval = policy.DefaultPollInterval
	}
	return &Sweeper{
		config:     config,
		scanner:    scanner,
		dispatcher: dispatcher,
		lists:      lists,
		store:      store,
		presenter:  presenter,
		hotkeys:    hotkeys,
		intents:    intents,
		logger:     logger,
	}
}

// Run scans immediately, then once per poll interval, until ctx is canceled
// or a quit intent arrives. Lists are saved on the way out.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("sweeper started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.String("hotkey", s.config.Hotkey))

	defer s.persist()

	s.cycle(ctx)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	intents := s.intents
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return ctx.Err()

		case <-ticker.C:
			s.cycle(ctx)

		case in, ok := <-intents:
			if !ok {
				intents = nil
				continue
			}
			if in.Kind == domain.IntentQuit {
				s.logger.Info("quit requested")
				return nil
			}
			s.apply(ctx, in)
		}
	}
}

// cycle drains queued hotkey events, rescans, runs one sweep per drained
// event and renders. It reports whether the scan succeeded; after a failure
// there is no current scan to sweep against.
func (s *Sweeper) cycle(ctx context.Context) bool {
	pending := s.drainHotkeys()

	scan, err := s.scanner.Scan(ctx, s.lists)
	if err != nil {
		s.last = nil
		if ctx.Err() != nil {
			return false
		}
		s.logger.Warn("scan failed", zap.Error(err))
		if pending > 0 {
			s.logger.Warn("dropping hotkey presses after failed scan", zap.Int("count", pending))
		}
		return false
	}
	s.last = scan

	for i := 0; i < pending; i++ {
		s.sweep(domain.TriggerHotkey)
	}
	s.render()
	return true
}

func (s *Sweeper) drainHotkeys() int {
	n := 0
	for {
		select {
		case ev, ok := <-s.hotkeys:
			if !ok {
				s.hotkeys = nil
				return n
			}
			if ev == domain.HotkeyKill {
				n++
			}
		default:
			return n
		}
	}
}

func (s *Sweeper) sweep(trigger domain.SweepTrigger) {
	if s.last == nil {
		return
	}
	targets := usecase.Targets(s.last, s.lists)
	result := s.dispatcher.CloseAll(trigger, targets, s.lists.ShowAll())

	s.logger.Info("sweep completed",
		zap.String("trigger", string(trigger)),
		zap.Int("targets", len(targets)),
		zap.Int("posted", len(result.Posted)),
		zap.Int("no_window", len(result.NoWindow)),
		zap.Int("hidden", len(result.Hidden)),
		zap.Int("errors", len(result.Errors)),
		zap.Int64("duration_ms", result.DurationMs))
}

// apply handles one intent. List edits are saved right away and followed by
// a rescan so the view reflects them.
func (s *Sweeper) apply(ctx context.Context, in domain.Intent) {
	s.notice = ""
	switch in.Kind {
	case domain.IntentAllowAdd:
		s.edit(in, s.lists.Allow.Add, s.imageNames())
	case domain.IntentAllowRemove:
		s.edit(in, remover(s.lists.Allow), s.lists.Allow.Names())
	case domain.IntentKillAdd:
		s.edit(in, s.lists.Kill.Add, s.imageNames())
	case domain.IntentKillRemove:
		s.edit(in, remover(s.lists.Kill), s.lists.Kill.Names())
	case domain.IntentToggleShowAll:
		s.lists.SetShowAll(!s.lists.ShowAll())
		s.logger.Info("show all toggled", zap.Bool("show_all", s.lists.ShowAll()))
		s.persist()
	case domain.IntentCloseAll:
		if !s.cycle(ctx) {
			s.logger.Warn("skipping close all after failed scan")
			return
		}
		s.sweep(domain.TriggerManual)
		return
	default:
		s.logger.Warn("unknown intent", zap.String("kind", string(in.Kind)))
		return
	}
	s.cycle(ctx)
}

// edit applies op to the typed name, resolved against known so a name
// typed the way it is displayed ("app") reaches the image ("app.exe").
func (s *Sweeper) edit(in domain.Intent, op func(string) bool, known []string) {
	name := policy.ResolveName(in.Name, known)
	if !op(name) {
		s.logger.Warn("ignored list edit", zap.String("kind", string(in.Kind)), zap.String("name", in.Name))
		s.notice = fmt.Sprintf("ignored %s %q", in.Kind, strings.TrimSpace(in.Name))
		return
	}
	s.logger.Info("list updated", zap.String("kind", string(in.Kind)), zap.String("name", name))
	s.notice = fmt.Sprintf("%s %s", in.Kind, name)
	s.persist()
}

// imageNames lists the image names of the latest snapshot.
func (s *Sweeper) imageNames() []string {
	if s.last == nil {
		return nil
	}
	names := make([]string, 0, len(s.last.Snapshot))
	for _, r := range s.last.Snapshot {
		names = append(names, r.ImageName)
	}
	return names
}

func remover(l *policy.NameList) func(string) bool {
	return func(name string) bool {
		if !l.Contains(name) {
			return false
		}
		l.Remove(name)
		return true
	}
}

func (s *Sweeper) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.lists.State()); err != nil {
		s.logger.Warn("failed to save lists", zap.Error(err))
	}
}

func (s *Sweeper) render() {
	if s.presenter == nil || s.last == nil {
		return
	}
	s.presenter.Render(domain.View{
		Closable: s.last.Closable.Entries(),
		Allow:    s.lists.Allow.Names(),
		Kill:     s.lists.Kill.Names(),
		ShowAll:  s.lists.ShowAll(),
		Hotkey:   s.config.Hotkey,
		Notice:   s.notice,
	})
}
