// Package window decides which top-level windows a user would consider open
// and maps processes to those windows. It only reads OS state through
// domain.WindowDirectory.
package window

import "github.com/eliteGoblin/expurgate/internal/domain"

// MaxPopupChain bounds the last-active-popup walk. Real chains are a handful
// of windows long; a longer one means the popup relation is cyclic.
const MaxPopupChain = 64

// IsUserVisible reports whether h would show up as an open app in a
// taskbar-like listing. showAll bypasses every check.
func IsUserVisible(dir domain.WindowDirectory, h domain.WindowHandle, showAll bool) bool {
	if showAll {
		return true
	}

	w := representative(dir, h)

	if dir.IsCloaked(w) {
		return false
	}
	if dir.ExtendedStyle(w)&domain.ExStyleToolWindow != 0 {
		return false
	}
	return dir.IsVisible(w)
}

// representative picks the window that stands for h's owner tree: the first
// visible popup reached from the root owner, or the end of the popup chain.
func representative(dir domain.WindowDirectory, h domain.WindowHandle) domain.WindowHandle {
	root := dir.RootOwner(h)
	if root == 0 {
		root = h
	}

	last := root
	seen := map[domain.WindowHandle]struct{}{root: {}}
	for i := 0; i < MaxPopupChain; i++ {
		popup := dir.LastActivePopup(last)
		if popup == last {
			break
		}
		last = popup
		if dir.IsVisible(popup) {
			break
		}
		if _, ok := seen[popup]; ok {
			break
		}
		seen[popup] = struct{}{}
	}

	// Invisible root below a visible dialog: the dialog is what the user sees.
	if !dir.IsVisible(last) {
		if popup := dir.LastActivePopup(root); dir.IsVisible(popup) {
			last = popup
		}
	}
	return last
}
