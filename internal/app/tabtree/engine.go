package tabtree

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// Engine is the explicit context object holding the forest, the single drag
// and close snapshots, and the injected configuration. All inbound host
// events and user commands enter through its methods and run to completion
// under one lock, so no reader ever observes a partially-consistent forest.
// Host calls are issued after the local commit; the local forest is the
// optimistic source of truth until the next full sync.
type Engine struct {
	mu sync.Mutex

	repo    *Repository
	windows *WindowGroupTracker
	editor  *StructuralEditor
	drag    *DragController
	closer  *CloseEngine
	search  *SearchEngine

	host  port.Host
	store port.StateStore
	cfg   config.EngineConfig

	drift map[entity.NodeID]struct{}
	idSeq int
	now   func() time.Time
}

// NewEngine wires the engine components. host and store may be nil in tests
// that only exercise local structure.
func NewEngine(host port.Host, store port.StateStore, cfg config.EngineConfig) *Engine {
	e := &Engine{
		host:  host,
		store: store,
		cfg:   cfg,
		drift: make(map[entity.NodeID]struct{}),
		now:   time.Now,
	}
	e.repo = NewRepository()
	e.windows = NewWindowGroupTracker(e.repo)
	e.editor = NewStructuralEditor(e.repo, e.windows)
	e.drag = NewDragController(e.repo, e.editor, host, e.markDrift)
	e.closer = NewCloseEngine(e.repo, e.editor, host, cfg, e.nextID)
	e.search = NewSearchEngine(e.repo, cfg)
	return e
}

// nextID mints a new internal node id. Internal ids are never recycled, so
// they can outlive the host tab ids they map to.
func (e *Engine) nextID() entity.NodeID {
	e.idSeq++
	return entity.NodeID(fmt.Sprintf("node-%d", e.idSeq))
}

func (e *Engine) markDrift(id entity.NodeID) {
	e.drift[id] = struct{}{}
}

// UpdateConfig swaps the injected engine configuration, e.g. after a config
// file hot reload. Snapshots already armed keep the window they were armed
// under only if the new window still covers them.
func (e *Engine) UpdateConfig(cfg config.EngineConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.closer.cfg = cfg
	e.search.cfg = cfg
}

// DriftedNodes returns the ids whose host position may not match the local
// forest because a reconciliation call failed. The set is cleared by the next
// full sync.
func (e *Engine) DriftedNodes() []entity.NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]entity.NodeID, 0, len(e.drift))
	for id := range e.drift {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Flatten returns the forest depth-first, parent before children.
func (e *Engine) Flatten() []*entity.TreeNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.Flatten()
}

// FindByID looks a node up by internal id.
func (e *Engine) FindByID(id entity.NodeID) (*entity.TreeNode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.FindByID(id)
}

// TabsInWindow returns the window's nodes in Flatten order.
func (e *Engine) TabsInWindow(windowID int) []*entity.TreeNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows.TabsInWindow(windowID)
}

// WindowIDs returns the known window ids in ascending order.
func (e *Engine) WindowIDs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows.WindowIDs()
}

// FocusedWindow returns the focused window id, or -1.
func (e *Engine) FocusedWindow() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows.Focused()
}

// Reparent moves a node under a new parent ("" for root) at index.
func (e *Engine) Reparent(ctx context.Context, nodeID, newParentID entity.NodeID, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editor.Reparent(ctx, nodeID, newParentID, index)
}

// StartDrag captures the drag snapshot for nodeID.
func (e *Engine) StartDrag(nodeID entity.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.StartDrag(nodeID)
}

// ValidateDrop reports whether dropping dragID onto targetID is legal.
func (e *Engine) ValidateDrop(dragID, targetID entity.NodeID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.ValidateDrop(dragID, targetID)
}

// CompleteDrop commits a validated drop and reconciles host positions.
func (e *Engine) CompleteDrop(ctx context.Context, dragID, targetID entity.NodeID) (DropResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.CompleteDrop(ctx, dragID, targetID)
}

// UndoDrag restores the placement recorded by the last drag.
func (e *Engine) UndoDrag(ctx context.Context) (DropResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drag.UndoDrag(ctx)
}

// NeedsConfirmation reports whether closing nodeID should be confirmed.
func (e *Engine) NeedsConfirmation(nodeID entity.NodeID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.NeedsConfirmation(nodeID)
}

// CloseCount returns the nominal subtree size of nodeID.
func (e *Engine) CloseCount(nodeID entity.NodeID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.CloseCount(nodeID)
}

// IsProtected reports whether policy exempts nodeID from recursive close.
func (e *Engine) IsProtected(nodeID entity.NodeID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.IsProtected(nodeID)
}

// CloseTabWithChildren closes nodeID and its subtree, arming the undo.
func (e *Engine) CloseTabWithChildren(ctx context.Context, nodeID entity.NodeID) (CloseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.CloseTabWithChildren(ctx, nodeID)
}

// CancelClose leaves the confirming state without closing anything.
func (e *Engine) CancelClose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closer.CancelClose()
}

// ActivateTab makes nodeID the active tab, asking the host to focus it (and
// its window, when activation crosses windows) and enforcing
// active-uniqueness locally.
func (e *Engine) ActivateTab(ctx context.Context, nodeID entity.NodeID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.repo.FindByID(nodeID)
	if !ok {
		return fmt.Errorf("activate %s: %w", nodeID, ErrNodeNotFound)
	}
	if e.host != nil {
		if err := e.host.Activate(ctx, node.ExternalID); err != nil {
			return fmt.Errorf("activate tab %d: %w", node.ExternalID, err)
		}
		if node.WindowID != e.windows.Focused() {
			if err := e.host.FocusWindow(ctx, node.WindowID); err != nil {
				logging.FromContext(ctx).Warn().Err(err).
					Int("window", node.WindowID).
					Msg("host window focus failed")
			} else {
				e.windows.SetFocused(node.WindowID)
			}
		}
	}
	e.activate(node)
	return nil
}

// UndoClose restores the last close within the undo window.
func (e *Engine) UndoClose(ctx context.Context) (UndoResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.UndoClose(ctx)
}

// CloseState returns the close lifecycle state.
func (e *Engine) CloseState() CloseState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.State()
}

// Notification returns the active undo notification, if any.
func (e *Engine) Notification() *entity.UndoNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closer.Notification()
}

// Search ranks nodes against the query.
func (e *Engine) Search(query string) []SearchResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search.Search(query)
}

// ExpandMatchedNodeParents un-collapses every ancestor of the matched nodes
// and persists the shrunken collapsed set.
func (e *Engine) ExpandMatchedNodeParents(ctx context.Context, results []SearchResult) []entity.NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()

	expanded := e.search.ExpandMatchedNodeParents(results)
	if len(expanded) > 0 {
		e.persistCollapsed(ctx)
	}
	return expanded
}

// SetCollapsed toggles a node's collapsed flag and persists the set.
func (e *Engine) SetCollapsed(ctx context.Context, nodeID entity.NodeID, collapsed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	node, ok := e.repo.FindByID(nodeID)
	if !ok {
		return fmt.Errorf("collapse %s: %w", nodeID, ErrNodeNotFound)
	}
	if node.IsCollapsed == collapsed {
		return nil
	}
	node.IsCollapsed = collapsed
	e.persistCollapsed(ctx)
	return nil
}

// persistCollapsed saves the current collapsed-id set. Persistence failures
// are logged, not surfaced: collapse state is a preference, not data.
func (e *Engine) persistCollapsed(ctx context.Context) {
	if e.store == nil {
		return
	}
	var ids []string
	for _, node := range e.repo.Flatten() {
		if node.IsCollapsed {
			ids = append(ids, string(node.ID))
		}
	}
	state := port.CollapsedState{IDs: ids, SavedAt: e.now()}
	if err := e.store.SaveCollapsed(ctx, state); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to persist collapsed set")
	}
}
