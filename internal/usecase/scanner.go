// Package usecase contains the scan and bulk-close logic run by the polling
// loop and the one-shot CLI commands.
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/policy"
	"github.com/eliteGoblin/expurgate/internal/window"
)

// ScannerImpl implements domain.Scanner.
type ScannerImpl struct {
	snapshotter domain.ProcessSnapshotter
	dir         domain.WindowDirectory
	correlator  *window.Correlator
	heuristic   policy.Heuristic
	logger      *zap.Logger
}

// NewScanner creates a scanner over the given process table and window directory.
func NewScanner(
	snapshotter domain.ProcessSnapshotter,
	dir domain.WindowDirectory,
	heuristic policy.Heuristic,
	logger *zap.Logger,
) *ScannerImpl {
	return &ScannerImpl{
		snapshotter: snapshotter,
		dir:         dir,
		correlator:  window.NewCorrelator(dir),
		heuristic:   heuristic,
		logger:      logger,
	}
}

// Scan builds this cycle's sets:
//
//	candidates = processes whose first top-level window is user-visible
//	closable   = candidates - allow list - heuristic rejects
//
// The snapshot is kept unfiltered for kill-list resolution.
func (s *ScannerImpl) Scan(ctx context.Context, lists domain.ListView) (*domain.ScanResult, error) {
	start := time.Now()

	snapshot, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}

	showAll := lists.ShowAll()
	candidates := domain.NewAppSet()
	for _, p := range snapshot {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, ok := s.correlator.FindWindowForPID(p.PID)
		if !ok {
			continue
		}
		if window.IsUserVisible(s.dir, h, showAll) {
			candidates.Put(p.ImageName, p.PID)
		}
	}

	closable := candidates.
		Without(lists.IsAllowed).
		Filter(func(e domain.AppEntry) bool {
			return s.heuristic.IsPlausibleUserApp(e.PID, e.ImageName)
		})

	result := &domain.ScanResult{
		Snapshot:   snapshot,
		Candidates: candidates,
		Closable:   closable,
		ScannedAt:  start,
		DurationMs: time.Since(start).Milliseconds(),
	}

	s.logger.Debug("scan complete",
		zap.Int("processes", len(snapshot)),
		zap.Int("candidates", len(candidates)),
		zap.Int("closable", len(closable)),
		zap.Int64("duration_ms", result.DurationMs))

	return result, nil
}

// Ensure ScannerImpl implements domain.Scanner.
var _ domain.Scanner = (*ScannerImpl)(nil)
