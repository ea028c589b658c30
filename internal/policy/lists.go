package policy

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

// NameList is a set of raw image names ("app.exe"). Order is irrelevant.
type NameList struct {
	names map[string]struct{}
}

// NewNameList creates a list holding names (blank entries are skipped).
func NewNameList(names ...string) *NameList {
	l := &NameList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		l.Add(n)
	}
	return l
}

// Add trims raw and inserts it. Returns false if nothing is left after trimming.
// Adding an existing name succeeds and leaves the list unchanged.
func (l *NameList) Add(raw string) bool {
	name := strings.TrimSpace(raw)
	if name == "" {
		return false
	}
	l.names[name] = struct{}{}
	return true
}

// Remove deletes name. No-op if absent.
func (l *NameList) Remove(name string) {
	delete(l.names, name)
}

// Contains is an exact, case-sensitive membership test.
func (l *NameList) Contains(name string) bool {
	_, ok := l.names[name]
	return ok
}

// Len returns the number of names.
func (l *NameList) Len() int {
	return len(l.names)
}

// Names returns the names sorted, for display and stable persistence.
func (l *NameList) Names() []string {
	out := make([]string, 0, len(l.names))
	for n := range l.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StripExtension removes a trailing file-type suffix for display:
// "app.exe" -> "app". Dotfiles such as ".hidden" are left alone.
func StripExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// ResolveName maps what a user typed to a full image name. Names that
// already match known exactly, or carry an extension, are returned trimmed.
// A bare display name ("app") resolves to the single known image that
// displays that way ("app.exe"); with zero or several matches the typed
// name is returned as is.
func ResolveName(typed string, known []string) string {
	name := strings.TrimSpace(typed)
	if name == "" || filepath.Ext(name) != "" {
		return name
	}
	match := ""
	for _, k := range known {
		if k == name {
			return name
		}
		if StripExtension(k) != name || k == match {
			continue
		}
		if match != "" {
			return name // ambiguous
		}
		match = k
	}
	if match == "" {
		return name
	}
	return match
}

// Lists bundles the allow list, the kill list and the show-all flag.
// It is owned by the polling loop; not safe for concurrent use.
type Lists struct {
	Allow   *NameList
	Kill    *NameList
	showAll bool
}

// NewLists creates empty lists.
func NewLists() *Lists {
	return &Lists{Allow: NewNameList(), Kill: NewNameList()}
}

// ListsFromState rebuilds lists from their persisted form.
func ListsFromState(s domain.ListState) *Lists {
	return &Lists{
		Allow:   NewNameList(s.Allow...),
		Kill:    NewNameList(s.Kill...),
		showAll: s.ShowAll,
	}
}

// LoadLists reads lists from store. A failed load is not fatal: it is logged
// and empty lists with default flags are returned.
func LoadLists(store domain.ListStore, logger *zap.Logger) *Lists {
	state, err := store.Load()
	if err != nil {
		logger.Warn("failed to load saved lists, starting empty", zap.Error(err))
		return NewLists()
	}
	return ListsFromState(state)
}

// State returns the persisted form of the lists.
func (l *Lists) State() domain.ListState {
	return domain.ListState{
		Allow:   l.Allow.Names(),
		Kill:    l.Kill.Names(),
		ShowAll: l.showAll,
	}
}

func (l *Lists) IsAllowed(name string) bool {
	return l.Allow.Contains(name)
}

func (l *Lists) IsKilled(name string) bool {
	return l.Kill.Contains(name)
}

// ShowAll reports whether the visibility classifier is bypassed.
func (l *Lists) ShowAll() bool {
	return l.showAll
}

// SetShowAll sets the diagnostic bypass flag.
func (l *Lists) SetShowAll(v bool) {
	l.showAll = v
}

// Ensure Lists implements domain.ListView.
var _ domain.ListView = (*Lists)(nil)
