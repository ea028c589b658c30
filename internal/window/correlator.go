package window

import "github.com/eliteGoblin/expurgate/internal/domain"

// Correlator maps a pid to one of its top-level windows.
type Correlator struct {
	dir domain.WindowDirectory
}

// NewCorrelator creates a correlator over dir.
func NewCorrelator(dir domain.WindowDirectory) *Correlator {
	return &Correlator{dir: dir}
}

// FindWindowForPID walks the whole top-level window list once and returns the
// first window owned by pid. A process with several top-level windows is
// represented by whichever the OS enumerates first; that order is not stable
// across calls. Returns false when pid owns no top-level window or the
// enumeration fails before a match.
func (c *Correlator) FindWindowForPID(pid uint32) (domain.WindowHandle, bool) {
	var found domain.WindowHandle
	matched := false

	err := c.dir.EnumerateTopLevel(func(h domain.WindowHandle) bool {
		if c.dir.OwnerPID(h) != pid {
			return true
		}
		found = h
		matched = true
		return false
	})
	if err != nil && !matched {
		return 0, false
	}
	return found, matched
}
