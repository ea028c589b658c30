// Package infra implements infrastructure concerns (process table, windows,
// hotkeys, list persistence).
package infra

import (
	"context"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// ProcessSnapshotterImpl implements domain.ProcessSnapshotter using gopsutil.
type ProcessSnapshotterImpl struct{}

// NewProcessSnapshotter creates a new process snapshotter.
func NewProcessSnapshotter() domain.ProcessSnapshotter {
	return &ProcessSnapshotterImpl{}
}

// Snapshot returns pid and image name for every process we can read.
// Processes that exit while we read them are skipped. gopsutil does not
// honor cancellation on every platform, so ctx is checked here too.
func (ps *ProcessSnapshotterImpl) Snapshot(ctx context.Context) ([]domain.ProcessRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ProcessRecord, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // Process may have exited
		}
		records = append(records, domain.ProcessRecord{
			PID:       uint32(p.Pid),
			ImageName: name,
		})
	}
	return records, nil
}

// SelfImageName returns this binary's image name, e.g. "expurgate.exe".
func SelfImageName() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}
	return filepath.Base(exe)
}

// Ensure ProcessSnapshotterImpl implements domain.ProcessSnapshotter.
var _ domain.ProcessSnapshotter = (*ProcessSnapshotterImpl)(nil)
