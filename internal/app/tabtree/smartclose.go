package tabtree

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// CloseState tracks where a close operation is in its lifecycle.
type CloseState int

const (
	CloseIdle CloseState = iota
	CloseConfirming
	CloseClosing
	CloseUndoArmed
)

// CloseResult aggregates the outcome of a recursive close. Partial success is
// still applied to the tree: the operation is not transactional.
type CloseResult struct {
	ClosedIDs        []entity.NodeID
	SkippedProtected int
	Errors           []error
}

// OK reports whether zero errors occurred.
func (r CloseResult) OK() bool {
	return len(r.Errors) == 0
}

// UndoResult aggregates the outcome of restoring a close snapshot.
type UndoResult struct {
	RestoredIDs []entity.NodeID
	Errors      []error
}

// OK reports whether every restoration succeeded.
func (r UndoResult) OK() bool {
	return len(r.Errors) == 0
}

// CloseEngine implements recursive protected-aware close with a time-boxed
// undo. It owns the single close snapshot and the undo notification.
type CloseEngine struct {
	repo   *Repository
	editor *StructuralEditor
	host   port.Host
	cfg    config.EngineConfig

	state        CloseState
	snapshot     *entity.CloseSnapshot
	notification *entity.UndoNotification
	newID        func() entity.NodeID
	now          func() time.Time
}

// NewCloseEngine creates a close engine. newID supplies internal ids for
// nodes recreated by undo.
func NewCloseEngine(repo *Repository, editor *StructuralEditor, host port.Host, cfg config.EngineConfig, newID func() entity.NodeID) *CloseEngine {
	return &CloseEngine{
		repo:   repo,
		editor: editor,
		host:   host,
		cfg:    cfg,
		newID:  newID,
		now:    time.Now,
	}
}

// State returns the current close lifecycle state.
func (c *CloseEngine) State() CloseState {
	return c.state
}

// CloseCount returns 1 for the node itself plus every transitive descendant.
// Protected descendants are counted: the confirmation threshold reflects the
// size of the subtree the user is pointing at, not the number of tabs that
// will actually close.
func (c *CloseEngine) CloseCount(nodeID entity.NodeID) int {
	return len(c.repo.SubtreePostOrder(nodeID))
}

// IsProtected reports whether policy exempts the node from recursive close.
func (c *CloseEngine) IsProtected(nodeID entity.NodeID) bool {
	if !c.cfg.ProtectPinned {
		return false
	}
	node, ok := c.repo.FindByID(nodeID)
	return ok && node.IsPinned
}

// NeedsConfirmation reports whether the caller should confirm before closing:
// confirmation is enabled and the node either has children or the close count
// exceeds the configured threshold. When true the engine enters Confirming;
// the caller renders whatever dialog it wants and either proceeds with
// CloseTabWithChildren or calls CancelClose.
func (c *CloseEngine) NeedsConfirmation(nodeID entity.NodeID) bool {
	if !c.cfg.ConfirmEnabled {
		return false
	}
	node, ok := c.repo.FindByID(nodeID)
	if !ok {
		return false
	}
	needed := len(c.repo.Children(node.ID)) > 0 || c.CloseCount(nodeID) > c.cfg.ConfirmThreshold
	if needed {
		c.state = CloseConfirming
	}
	return needed
}

// CancelClose leaves the Confirming state without closing anything.
func (c *CloseEngine) CancelClose() {
	if c.state == CloseConfirming {
		c.state = CloseIdle
	}
}

// CloseTabWithChildren closes the node and its whole subtree, children before
// parents, skipping protected nodes. Each host close is awaited on its own; a
// per-item failure is recorded and the rest of the batch continues. Nodes the
// host confirmed closed are removed locally (promotion applies to any that
// unexpectedly kept children) and snapshotted for the time-boxed undo.
func (c *CloseEngine) CloseTabWithChildren(ctx context.Context, nodeID entity.NodeID) (CloseResult, error) {
	log := logging.FromContext(ctx)
	var result CloseResult

	if _, ok := c.repo.FindByID(nodeID); !ok {
		return result, fmt.Errorf("close %s: %w", nodeID, ErrNodeNotFound)
	}

	c.state = CloseClosing
	collection := c.repo.SubtreePostOrder(nodeID)

	// Deep-copy every non-protected node up front; references would let the
	// removals below bleed into the undo snapshot.
	copies := make(map[entity.NodeID]*entity.TreeNode, len(collection))
	for _, node := range collection {
		if !c.IsProtected(node.ID) {
			copies[node.ID] = node.Clone()
		}
	}

	for _, node := range collection {
		if c.IsProtected(node.ID) {
			result.SkippedProtected++
			continue
		}
		if c.host != nil {
			if err := c.host.Remove(ctx, node.ExternalID); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("close tab %d: %w", node.ExternalID, err))
				log.Warn().Err(err).Int("tab", node.ExternalID).Msg("host close failed, continuing")
				continue
			}
		}
		if err := c.editor.Remove(ctx, node.ID); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.ClosedIDs = append(result.ClosedIDs, node.ID)
	}

	if len(result.ClosedIDs) > 0 {
		snapshot := &entity.CloseSnapshot{Timestamp: c.now()}
		for _, node := range collection {
			clone, ok := copies[node.ID]
			if !ok {
				continue
			}
			if containsID(result.ClosedIDs, node.ID) {
				snapshot.Nodes = append(snapshot.Nodes, clone)
			}
		}
		c.snapshot = snapshot
		c.notification = &entity.UndoNotification{
			Message:   fmt.Sprintf("Closed %d tabs", len(result.ClosedIDs)),
			TabCount:  len(result.ClosedIDs),
			Timestamp: snapshot.Timestamp,
		}
		c.state = CloseUndoArmed
	} else {
		c.state = CloseIdle
	}

	log.Debug().
		Int("closed", len(result.ClosedIDs)).
		Int("skipped", result.SkippedProtected).
		Int("errors", len(result.Errors)).
		Msg("close with children finished")
	return result, nil
}

// UndoClose restores the most recent close snapshot: each snapshotted node is
// recreated at the host, then reinserted preserving the recorded parent/child
// linkage. Fails with ErrNothingToUndo when no snapshot exists, and with
// ErrUndoExpired (clearing the stale snapshot) when the undo window elapsed.
// Per-item recreation failures do not block the remaining restorations; the
// snapshot and notification are cleared on completion regardless.
func (c *CloseEngine) UndoClose(ctx context.Context) (UndoResult, error) {
	var result UndoResult

	if c.snapshot == nil {
		return result, ErrNothingToUndo
	}
	if c.snapshot.Expired(c.now(), c.cfg.UndoWindow) {
		c.snapshot = nil
		c.notification = nil
		c.state = CloseIdle
		return result, ErrUndoExpired
	}

	snapshot := c.snapshot
	defer func() {
		c.snapshot = nil
		c.notification = nil
		c.state = CloseIdle
	}()

	// Phase one: recreate host tabs in original (collection) order.
	recreated := make(map[entity.NodeID]int, len(snapshot.Nodes))
	for _, node := range snapshot.Nodes {
		if c.host == nil {
			recreated[node.ID] = node.ExternalID
			continue
		}
		tab, err := c.host.Create(ctx, port.CreateTabRequest{
			URL:      node.URL,
			WindowID: node.WindowID,
			Active:   node.IsActive,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("recreate tab %q: %w", node.URL, err))
			continue
		}
		recreated[node.ID] = tab.ID
	}

	// Phase two: reinsert parents before children so linkage survives; the
	// snapshot order is post-order, which would orphan every child.
	ordered := append([]*entity.TreeNode(nil), snapshot.Nodes...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Depth < ordered[j].Depth })

	for _, node := range ordered {
		externalID, ok := recreated[node.ID]
		if !ok {
			continue
		}
		restored := node.Clone()
		if _, taken := c.repo.FindByID(restored.ID); taken {
			// The original id was reused while the snapshot was armed.
			restored.ID = c.newID()
		}
		restored.ExternalID = externalID
		if parentID, ok := c.restoredParent(node.ParentID); ok {
			restored.ParentID = parentID
		} else {
			restored.ParentID = ""
		}
		if err := c.repo.Insert(restored); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		// Later snapshot entries referencing the old id must find the new one.
		c.rebindSnapshotParent(snapshot, node.ID, restored.ID)
		result.RestoredIDs = append(result.RestoredIDs, restored.ID)
	}

	c.editor.recomputeWindows()
	logging.FromContext(ctx).Debug().
		Int("restored", len(result.RestoredIDs)).
		Int("errors", len(result.Errors)).
		Msg("close undone")
	return result, nil
}

// restoredParent resolves a snapshotted ParentID to a live node: either a
// survivor that was never closed, or a node restored earlier in this undo
// (whose ParentID references were rebound as it was reinserted).
func (c *CloseEngine) restoredParent(parentID entity.NodeID) (entity.NodeID, bool) {
	if parentID == "" {
		return "", true
	}
	if _, ok := c.repo.FindByID(parentID); ok {
		return parentID, true
	}
	return "", false
}

// rebindSnapshotParent rewrites ParentID references from a snapshotted id to
// the id assigned on restoration.
func (c *CloseEngine) rebindSnapshotParent(snapshot *entity.CloseSnapshot, oldID, newID entity.NodeID) {
	for _, node := range snapshot.Nodes {
		if node.ParentID == oldID {
			node.ParentID = newID
		}
	}
}

// Notification returns the active undo notification, if any.
func (c *CloseEngine) Notification() *entity.UndoNotification {
	return c.notification
}

// Snapshot returns the active close snapshot, if any.
func (c *CloseEngine) Snapshot() *entity.CloseSnapshot {
	return c.snapshot
}

func containsID(ids []entity.NodeID, id entity.NodeID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
