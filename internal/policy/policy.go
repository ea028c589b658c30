// Package policy decides which processes are eligible for a bulk close.
// It holds the name heuristic and the user's allow/kill lists; nothing here
// touches the OS.
package policy

import (
	"strings"
	"time"
)

// DefaultPollInterval is how often the sweeper refreshes the process table.
const DefaultPollInterval = time.Second

// Reserved pids: 0 is the idle process, 4 the kernel "System" process on Windows.
const (
	idlePID   uint32 = 0
	systemPID uint32 = 4
)

// denyTokens identify background and shell processes by name.
// Matched case-insensitively as substrings.
var denyTokens = []string{
	"service",
	"helper",
	"overlay",
	"tray",
	"host",
	"broker",
	"container",
	"runtime",
	"svchost",
	"dwm",
	"explorer",
	"taskmgr",
}

// DenyTokens returns a copy of the denylist.
func DenyTokens() []string {
	return append([]string(nil), denyTokens...)
}

// Heuristic rejects process names that are unlikely to be user-facing apps.
type Heuristic struct {
	// SelfName is this tool's own image name, never closed.
	SelfName string
}

// NewHeuristic creates a heuristic that also excludes selfName.
func NewHeuristic(selfName string) Heuristic {
	return Heuristic{SelfName: selfName}
}

// IsPlausibleUserApp reports whether pid/name looks like an app a user opened.
func (h Heuristic) IsPlausibleUserApp(pid uint32, name string) bool {
	if pid == idlePID || pid == systemPID {
		return false
	}
	if h.SelfName != "" && strings.EqualFold(name, h.SelfName) {
		return false
	}

	lower := strings.ToLower(name)
	for _, token := range denyTokens {
		if strings.Contains(lower, token) {
			return false
		}
	}
	return true
}
