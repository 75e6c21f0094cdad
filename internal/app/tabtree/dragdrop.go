package tabtree

import (
	"context"
	"fmt"
	"time"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// DropResult reports the outcome of a completed drop. The local structural
// edit always sticks once validation passed; HostErrors carries any failed
// position-reconciliation calls (the local edit is not rolled back on a host
// failure, the periodic full sync is the correction path).
type DropResult struct {
	NodeID     entity.NodeID
	HostErrors []error
}

// OK reports whether every host reconciliation call succeeded.
func (r DropResult) OK() bool {
	return len(r.HostErrors) == 0
}

// DragController validates and commits drag-reparent operations and keeps the
// single drag snapshot for one-level undo.
type DragController struct {
	repo      *Repository
	editor    *StructuralEditor
	host      port.Host
	markDrift func(entity.NodeID)

	snapshot *entity.DragSnapshot
	now      func() time.Time
}

// NewDragController creates a controller. markDrift may be nil.
func NewDragController(repo *Repository, editor *StructuralEditor, host port.Host, markDrift func(entity.NodeID)) *DragController {
	return &DragController{
		repo:      repo,
		editor:    editor,
		host:      host,
		markDrift: markDrift,
		now:       time.Now,
	}
}

// StartDrag captures the node's current placement so the drag can be undone.
// Starting a new drag overwrites any previous snapshot.
func (d *DragController) StartDrag(nodeID entity.NodeID) error {
	node, ok := d.repo.FindByID(nodeID)
	if !ok {
		return fmt.Errorf("start drag %s: %w", nodeID, ErrNodeNotFound)
	}
	d.snapshot = captureDragSnapshot(node, d.now())
	return nil
}

// ValidateDrop is the pure legality predicate for a proposed move: the target
// must exist, must not be the dragged node, and must not be one of its
// descendants. An empty target means "promote to root", which is valid for
// any node that is not already a parentless root.
func (d *DragController) ValidateDrop(dragID, targetID entity.NodeID) bool {
	node, ok := d.repo.FindByID(dragID)
	if !ok {
		return false
	}
	if targetID == "" {
		return node.ParentID != ""
	}
	if targetID == dragID {
		return false
	}
	if _, ok := d.repo.FindByID(targetID); !ok {
		return false
	}
	// Walk upward from the target; finding the dragged node means the target
	// sits inside the dragged subtree.
	chain, corrupt := d.repo.Ancestors(targetID)
	if corrupt {
		return false
	}
	for _, ancestorID := range chain {
		if ancestorID == dragID {
			return false
		}
	}
	return true
}

// CompleteDrop commits the move through the structural editor after
// validation, then asks the host to mirror the new position for the moved
// node and, depth-first, every descendant. Host failures are surfaced in the
// result and recorded as drift; they do not revert the local edit.
func (d *DragController) CompleteDrop(ctx context.Context, dragID, targetID entity.NodeID) (DropResult, error) {
	result := DropResult{NodeID: dragID}

	node, ok := d.repo.FindByID(dragID)
	if !ok {
		return result, fmt.Errorf("complete drop %s: %w", dragID, ErrNodeNotFound)
	}

	if targetID == "" {
		// Promoting to root can never create a cycle; commit unconditionally.
		if d.snapshot == nil || d.snapshot.NodeID != dragID {
			d.snapshot = captureDragSnapshot(node, d.now())
		}
		if err := d.editor.Reparent(ctx, dragID, "", -1); err != nil {
			return result, err
		}
	} else {
		if !d.ValidateDrop(dragID, targetID) {
			return result, ErrInvalidDropTarget
		}
		if d.snapshot == nil || d.snapshot.NodeID != dragID {
			d.snapshot = captureDragSnapshot(node, d.now())
		}
		if err := d.editor.Reparent(ctx, dragID, targetID, -1); err != nil {
			return result, err
		}
	}

	result.HostErrors = d.reconcilePositions(ctx, dragID)
	return result, nil
}

// UndoDrag restores the placement recorded in the drag snapshot, recomputes
// descendant depths, and re-issues the host reconciliation for the restored
// subtree. It fails with ErrNoDragSnapshot when there is nothing to undo.
func (d *DragController) UndoDrag(ctx context.Context) (DropResult, error) {
	if d.snapshot == nil {
		return DropResult{}, ErrNoDragSnapshot
	}
	snap := d.snapshot
	d.snapshot = nil

	result := DropResult{NodeID: snap.NodeID}
	node, ok := d.repo.FindByID(snap.NodeID)
	if !ok {
		return result, fmt.Errorf("undo drag %s: %w", snap.NodeID, ErrNodeNotFound)
	}

	index := snap.SiblingIndex
	parentID := snap.ParentID
	if parentID == "" {
		index = snap.RootIndex
	} else if _, ok := d.repo.FindByID(parentID); !ok {
		// Original parent is gone; the root list is the closest restoration.
		parentID = ""
		index = -1
	}

	if err := d.editor.Reparent(ctx, node.ID, parentID, index); err != nil {
		return result, err
	}

	result.HostErrors = d.reconcilePositions(ctx, node.ID)
	logging.FromContext(ctx).Debug().Str("node", string(node.ID)).Msg("drag undone")
	return result, nil
}

// Snapshot returns the current drag snapshot, if any.
func (d *DragController) Snapshot() *entity.DragSnapshot {
	return d.snapshot
}

// reconcilePositions asks the host to move the node and every descendant to
// their current flat window positions, depth-first so a parent is placed
// before the children that visually follow it. Per-item failures are
// collected and marked as drift; the batch is never aborted.
func (d *DragController) reconcilePositions(ctx context.Context, nodeID entity.NodeID) []error {
	var errs []error
	if d.host == nil {
		return errs
	}

	indexByID := make(map[entity.NodeID]int)
	for _, nodes := range d.repo.WindowGroups() {
		for i, node := range nodes {
			indexByID[node.ID] = i
		}
	}

	for _, node := range d.repo.Subtree(nodeID) {
		if err := d.host.Move(ctx, node.ExternalID, node.WindowID, indexByID[node.ID]); err != nil {
			errs = append(errs, fmt.Errorf("move tab %d: %w", node.ExternalID, err))
			if d.markDrift != nil {
				d.markDrift(node.ID)
			}
			logging.FromContext(ctx).Warn().Err(err).
				Int("tab", node.ExternalID).
				Msg("host move failed, node marked drifted")
		}
	}
	return errs
}

func captureDragSnapshot(node *entity.TreeNode, now time.Time) *entity.DragSnapshot {
	snap := &entity.DragSnapshot{
		NodeID:       node.ID,
		ParentID:     node.ParentID,
		Depth:        node.Depth,
		SiblingIndex: node.SiblingIndex,
		RootIndex:    -1,
		CapturedAt:   now,
	}
	if node.ParentID == "" {
		snap.RootIndex = node.SiblingIndex
	}
	return snap
}
