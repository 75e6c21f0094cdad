package tabtree

import (
	"context"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// EventType identifies a normalized host event.
type EventType string

const (
	EventTabCreated         EventType = "tab_created"
	EventTabRemoved         EventType = "tab_removed"
	EventTabUpdated         EventType = "tab_updated"
	EventTabMoved           EventType = "tab_moved"
	EventTabActivated       EventType = "tab_activated"
	EventWindowCreated      EventType = "window_created"
	EventWindowRemoved      EventType = "window_removed"
	EventWindowFocusChanged EventType = "window_focus_changed"
)

// TabChange is the change set carried by a tab-updated event. Nil fields mean
// "unchanged"; the engine applies fields one by one and stamps LastModified
// only when something actually changed.
type TabChange struct {
	Title      *string
	URL        *string
	FaviconURL *string
	Loading    *bool
	Audible    *bool
	Pinned     *bool
}

// MoveInfo is the placement carried by a tab-moved event.
type MoveInfo struct {
	WindowID  int
	FromIndex int
	ToIndex   int
}

// Event is one normalized host event. The transport that listens to the
// browser's own event surface translates into this shape; the engine never
// sees raw host payloads.
type Event struct {
	Type     EventType
	Tab      *port.HostTab // tab_created
	TabID    int           // tab_removed, tab_updated, tab_moved, tab_activated
	Change   *TabChange    // tab_updated
	Move     *MoveInfo     // tab_moved
	WindowID int           // window_created, window_removed, window_focus_changed
}

// Apply processes one inbound event to completion. Unknown tab ids are
// logged and dropped; a replayed or out-of-order event must never corrupt
// the forest.
func (e *Engine) Apply(ctx context.Context, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case EventTabCreated:
		e.handleTabCreated(ctx, ev)
	case EventTabRemoved:
		e.handleTabRemoved(ctx, ev)
	case EventTabUpdated:
		e.handleTabUpdated(ctx, ev)
	case EventTabMoved:
		e.handleTabMoved(ctx, ev)
	case EventTabActivated:
		e.handleTabActivated(ctx, ev)
	case EventWindowCreated:
		e.windows.Register(ev.WindowID)
	case EventWindowRemoved:
		e.handleWindowRemoved(ctx, ev)
	case EventWindowFocusChanged:
		e.windows.SetFocused(ev.WindowID)
	default:
		logging.FromContext(ctx).Warn().Str("type", string(ev.Type)).Msg("unknown event type")
	}
}

func (e *Engine) handleTabCreated(ctx context.Context, ev Event) {
	if ev.Tab == nil {
		return
	}
	if existing, ok := e.repo.FindByExternalID(ev.Tab.ID); ok {
		// Replayed create for a tab we already track; refresh content, keep
		// the tree placement.
		existing.URL = ev.Tab.URL
		existing.Title = ev.Tab.Title
		existing.FaviconURL = ev.Tab.FaviconURL
		existing.IsPinned = ev.Tab.Pinned
		existing.IsLoading = ev.Tab.Loading
		existing.IsAudioPlaying = ev.Tab.Audible
		existing.Touch(e.now())
		return
	}
	node := e.editor.AddChildFromExternalCreate(ctx, e.nextID(), *ev.Tab)
	if ev.Tab.Active {
		e.activate(node)
	}
}

func (e *Engine) handleTabRemoved(ctx context.Context, ev Event) {
	node, ok := e.repo.FindByExternalID(ev.TabID)
	if !ok {
		logging.FromContext(ctx).Debug().Int("tab", ev.TabID).Msg("remove for unknown tab")
		return
	}
	delete(e.drift, node.ID)
	_ = e.editor.Remove(ctx, node.ID)
}

func (e *Engine) handleTabUpdated(ctx context.Context, ev Event) {
	node, ok := e.repo.FindByExternalID(ev.TabID)
	if !ok || ev.Change == nil {
		return
	}

	changed := false
	apply := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	apply(&node.Title, ev.Change.Title)
	apply(&node.URL, ev.Change.URL)
	apply(&node.FaviconURL, ev.Change.FaviconURL)
	applyBool(&node.IsLoading, ev.Change.Loading)
	applyBool(&node.IsAudioPlaying, ev.Change.Audible)
	applyBool(&node.IsPinned, ev.Change.Pinned)

	if changed {
		node.Touch(e.now())
	}
}

// handleTabMoved mirrors a host-side move. A cross-window move promotes the
// subtree to the new window's root list; an in-window move of a root
// repositions it among that window's roots. In-window moves of nested nodes
// are ignored: the tree order is authoritative and the next reconciliation
// pushes it back to the host.
func (e *Engine) handleTabMoved(ctx context.Context, ev Event) {
	node, ok := e.repo.FindByExternalID(ev.TabID)
	if !ok || ev.Move == nil {
		return
	}

	if ev.Move.WindowID != node.WindowID {
		if err := e.editor.Reparent(ctx, node.ID, "", -1); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Int("tab", ev.TabID).Msg("cross-window move failed")
			return
		}
		e.repo.propagateWindow(node, ev.Move.WindowID)
		e.windows.Recompute()
		return
	}

	if node.ParentID != "" {
		node.Touch(e.now())
		return
	}

	index := e.rootIndexForFlatIndex(ev.Move.WindowID, ev.Move.ToIndex)
	_ = e.editor.Reparent(ctx, node.ID, "", index)
}

// rootIndexForFlatIndex translates the host's flat window index into a
// position in the global root list: the slot of the root subtree that
// currently covers that flat position.
func (e *Engine) rootIndexForFlatIndex(windowID, flatIndex int) int {
	covered := 0
	position := 0
	for _, rootID := range e.repo.Roots() {
		root, ok := e.repo.FindByID(rootID)
		if !ok || root.WindowID != windowID {
			position++
			continue
		}
		if covered >= flatIndex {
			return position
		}
		covered += len(e.repo.Subtree(rootID))
		position++
	}
	return -1 // append
}

func (e *Engine) handleTabActivated(ctx context.Context, ev Event) {
	node, ok := e.repo.FindByExternalID(ev.TabID)
	if !ok {
		return
	}
	e.activate(node)
}

// activate enforces active uniqueness: at most one node in the forest has
// IsActive set.
func (e *Engine) activate(node *entity.TreeNode) {
	for _, other := range e.repo.Flatten() {
		if other.IsActive && other.ID != node.ID {
			other.IsActive = false
		}
	}
	node.IsActive = true
	node.LastAccessed = e.now()
}

// handleWindowRemoved drops every node in the window. Children go down with
// their window; promotion never crosses a window boundary here.
func (e *Engine) handleWindowRemoved(ctx context.Context, ev Event) {
	var doomed []entity.NodeID
	for _, node := range e.repo.Flatten() {
		if node.WindowID == ev.WindowID {
			doomed = append(doomed, node.ID)
		}
	}
	// Leaf-first so each Remove promotes nothing that is not itself doomed.
	for i := len(doomed) - 1; i >= 0; i-- {
		delete(e.drift, doomed[i])
		_ = e.repo.Remove(doomed[i])
	}
	e.windows.Unregister(ev.WindowID)
	logging.FromContext(ctx).Debug().Int("window", ev.WindowID).Int("tabs", len(doomed)).Msg("window removed")
}
