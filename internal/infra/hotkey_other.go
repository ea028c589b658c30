//go:build !windows && !linux

package infra

import "github.com/eliteGoblin/expurgate/internal/domain"

// NewHotkeyFacility is unavailable on this platform.
func NewHotkeyFacility() (domain.HotkeyFacility, error) {
	return nil, domain.ErrUnsupportedPlatform
}
