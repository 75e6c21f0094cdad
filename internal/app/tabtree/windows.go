package tabtree

import (
	"sort"

	"github.com/arbor-browser/arbor/internal/domain/entity"
)

// WindowGroupTracker derives the windowId to node-list grouping from the
// repository and keeps it current across structural edits. It recomputes by
// full traversal after every write; writes are not per-frame, so simplicity
// wins over incremental updates.
type WindowGroupTracker struct {
	repo       *Repository
	groups     map[int][]entity.NodeID
	registered map[int]struct{}
	focused    int
}

// NewWindowGroupTracker creates a tracker over the repository.
func NewWindowGroupTracker(repo *Repository) *WindowGroupTracker {
	return &WindowGroupTracker{
		repo:       repo,
		groups:     make(map[int][]entity.NodeID),
		registered: make(map[int]struct{}),
		focused:    -1,
	}
}

// Recompute rebuilds the grouping by a full repository traversal. Registered
// windows keep an entry even while they hold no tabs.
func (t *WindowGroupTracker) Recompute() {
	groups := make(map[int][]entity.NodeID, len(t.groups))
	for id := range t.registered {
		groups[id] = nil
	}
	for _, node := range t.repo.Flatten() {
		groups[node.WindowID] = append(groups[node.WindowID], node.ID)
	}
	t.groups = groups
}

// Register records a window the host announced before any of its tabs
// arrived, so an empty window is still listed.
func (t *WindowGroupTracker) Register(windowID int) {
	t.registered[windowID] = struct{}{}
	if _, ok := t.groups[windowID]; !ok {
		t.groups[windowID] = nil
	}
}

// Unregister forgets a window and rebuilds the grouping. The window's entry
// survives only if tabs still reference it.
func (t *WindowGroupTracker) Unregister(windowID int) {
	delete(t.registered, windowID)
	t.Recompute()
}

// Reset drops every registration before an authoritative rebuild.
func (t *WindowGroupTracker) Reset() {
	t.registered = make(map[int]struct{})
	t.groups = make(map[int][]entity.NodeID)
}

// TabsInWindow returns the window's nodes in Flatten order.
func (t *WindowGroupTracker) TabsInWindow(windowID int) []*entity.TreeNode {
	ids := t.groups[windowID]
	out := make([]*entity.TreeNode, 0, len(ids))
	for _, id := range ids {
		if node, ok := t.repo.FindByID(id); ok {
			out = append(out, node)
		}
	}
	return out
}

// WindowIDs returns the known window ids in ascending order.
func (t *WindowGroupTracker) WindowIDs() []int {
	ids := make([]int, 0, len(t.groups))
	for id := range t.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetFocused records the host's focused window; -1 means none.
func (t *WindowGroupTracker) SetFocused(windowID int) {
	t.focused = windowID
}

// Focused returns the focused window id, or -1 when none is focused.
func (t *WindowGroupTracker) Focused() int {
	return t.focused
}
