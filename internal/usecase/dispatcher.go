package usecase

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/window"
)

// DispatcherImpl implements domain.Dispatcher.
type DispatcherImpl struct {
	dir        domain.WindowDirectory
	correlator *window.Correlator
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher posting close requests through dir.
func NewDispatcher(dir domain.WindowDirectory, logger *zap.Logger) *DispatcherImpl {
	return &DispatcherImpl{
		dir:        dir,
		correlator: window.NewCorrelator(dir),
		logger:     logger,
	}
}

// CloseAll asks every target's window to close. Handles are looked up again
// here because the ones seen during the scan may be gone. Nothing is
// retried and nothing waits for the window to react.
func (d *DispatcherImpl) CloseAll(trigger domain.SweepTrigger, targets []domain.CloseTarget, showAll bool) *domain.SweepResult {
	start := time.Now()

	result := &domain.SweepResult{
		Trigger:    trigger,
		Targets:    targets,
		Posted:     make([]uint32, 0, len(targets)),
		NoWindow:   make([]uint32, 0),
		Hidden:     make([]uint32, 0),
		Errors:     make([]error, 0),
		ExecutedAt: start,
	}

	for _, t := range targets {
		h, ok := d.correlator.FindWindowForPID(t.PID)
		if !ok {
			result.NoWindow = append(result.NoWindow, t.PID)
			continue
		}
		if !t.Force && !window.IsUserVisible(d.dir, h, showAll) {
			result.Hidden = append(result.Hidden, t.PID)
			continue
		}

		if err := d.dir.PostClose(h); err != nil {
			d.logger.Debug("close request failed",
				zap.Uint32("pid", t.PID),
				zap.String("name", t.ImageName),
				zap.Error(err))
			result.Errors = append(result.Errors, err)
			continue
		}

		d.logger.Info("close requested",
			zap.String("trigger", string(trigger)),
			zap.Uint32("pid", t.PID),
			zap.String("name", t.ImageName),
			zap.Bool("forced", t.Force))
		result.Posted = append(result.Posted, t.PID)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// Targets is the closable set plus every running process named on the kill
// list. Kill-list processes skip the visibility check; the allow list still
// wins over the kill list. Targets are ordered by name, then pid.
func Targets(scan *domain.ScanResult, lists domain.ListView) []domain.CloseTarget {
	byPID := make(map[uint32]domain.CloseTarget, len(scan.Closable))
	for name, pid := range scan.Closable {
		byPID[pid] = domain.CloseTarget{PID: pid, ImageName: name}
	}

	// A name on both lists is never closed: the allow list also overrides
	// kill entries, not just the closable set.
	for _, p := range scan.Snapshot {
		if !lists.IsKilled(p.ImageName) || lists.IsAllowed(p.ImageName) {
			continue
		}
		byPID[p.PID] = domain.CloseTarget{PID: p.PID, ImageName: p.ImageName, Force: true}
	}

	targets := make([]domain.CloseTarget, 0, len(byPID))
	for _, t := range byPID {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].ImageName != targets[j].ImageName {
			return targets[i].ImageName < targets[j].ImageName
		}
		return targets[i].PID < targets[j].PID
	})
	return targets
}

// Ensure DispatcherImpl implements domain.Dispatcher.
var _ domain.Dispatcher = (*DispatcherImpl)(nil)
