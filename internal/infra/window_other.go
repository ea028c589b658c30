//go:build !windows && !linux

package infra

import "github.com/eliteGoblin/expurgate/internal/domain"

// NewWindowDirectory is unavailable on this platform.
func NewWindowDirectory() (domain.WindowDirectory, error) {
	return nil, domain.ErrUnsupportedPlatform
}
