package tabtree

import (
	"context"
	"fmt"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// StructuralEditor performs every structural mutation of the forest:
// reparenting, removal with promotion, and node creation from host events.
// Nothing else writes the repository.
type StructuralEditor struct {
	repo    *Repository
	windows *WindowGroupTracker
}

// NewStructuralEditor creates an editor over the given repository. The
// window tracker may be nil when no grouping view is needed.
func NewStructuralEditor(repo *Repository, windows *WindowGroupTracker) *StructuralEditor {
	return &StructuralEditor{repo: repo, windows: windows}
}

// Reparent moves a node (and implicitly its subtree) under newParentID, or to
// the root list when newParentID is empty. index is the requested position
// among the new siblings; negative means append. The move is rejected when it
// would make the node its own ancestor.
func (e *StructuralEditor) Reparent(ctx context.Context, nodeID, newParentID entity.NodeID, index int) error {
	node, ok := e.repo.FindByID(nodeID)
	if !ok {
		return fmt.Errorf("reparent %s: %w", nodeID, ErrNodeNotFound)
	}
	if newParentID == nodeID {
		return ErrReparentSelf
	}

	var newParent *entity.TreeNode
	if newParentID != "" {
		newParent, ok = e.repo.FindByID(newParentID)
		if !ok {
			return fmt.Errorf("reparent %s: new parent %s: %w", nodeID, newParentID, ErrNodeNotFound)
		}
		if err := e.checkCycle(nodeID, newParentID); err != nil {
			return err
		}
	}

	e.repo.detach(node)
	e.repo.attach(node, newParentID, index)
	e.repo.recomputeDepths(node)

	if newParent != nil && newParent.WindowID != node.WindowID {
		e.repo.propagateWindow(node, newParent.WindowID)
	}

	e.recomputeWindows()
	logging.FromContext(ctx).Debug().
		Str("node", string(nodeID)).
		Str("parent", string(newParentID)).
		Int("index", index).
		Msg("reparented node")
	return nil
}

// checkCycle walks the ancestors of newParentID looking for nodeID. A
// repeated id during the walk means the forest is already corrupt; that is
// reported as a cycle too rather than looping forever.
func (e *StructuralEditor) checkCycle(nodeID, newParentID entity.NodeID) error {
	chain, corrupt := e.repo.Ancestors(newParentID)
	if corrupt {
		return fmt.Errorf("ancestor walk from %s found a repeated id: %w", newParentID, ErrCycleDetected)
	}
	if nodeID == newParentID {
		return ErrCycleDetected
	}
	for _, ancestorID := range chain {
		if ancestorID == nodeID {
			return ErrCycleDetected
		}
	}
	return nil
}

// Remove deletes a node, promoting its children per the repository's rule.
func (e *StructuralEditor) Remove(ctx context.Context, nodeID entity.NodeID) error {
	if err := e.repo.Remove(nodeID); err != nil {
		return err
	}
	e.recomputeWindows()
	logging.FromContext(ctx).Debug().Str("node", string(nodeID)).Msg("removed node")
	return nil
}

// AddChildFromExternalCreate builds a node for a host tab-created event. The
// parent is resolved through the host's opener hint when present; a hint that
// would create a cycle (stale or replayed) degrades to a root insertion with
// a warning, never an error.
func (e *StructuralEditor) AddChildFromExternalCreate(ctx context.Context, id entity.NodeID, tab port.HostTab) *entity.TreeNode {
	log := logging.FromContext(ctx)

	node := entity.NewTreeNode(id, tab.ID, tab.WindowID)
	node.URL = tab.URL
	node.Title = tab.Title
	node.FaviconURL = tab.FaviconURL
	node.IsPinned = tab.Pinned
	node.IsLoading = tab.Loading
	node.IsAudioPlaying = tab.Audible

	if tab.OpenerID != nil {
		if opener, ok := e.repo.FindByExternalID(*tab.OpenerID); ok {
			if e.checkCycle(id, opener.ID) == nil {
				node.ParentID = opener.ID
			} else {
				log.Warn().
					Str("node", string(id)).
					Int("opener", *tab.OpenerID).
					Msg("opener hint would create a cycle, inserting as root")
			}
		}
	}

	if err := e.repo.Insert(node); err != nil {
		// Only a duplicate id reaches here; keep the existing node authoritative.
		log.Warn().Err(err).Str("node", string(id)).Msg("insert degraded")
		existing, _ := e.repo.FindByID(id)
		return existing
	}

	e.recomputeWindows()
	return node
}

func (e *StructuralEditor) recomputeWindows() {
	if e.windows != nil {
		e.windows.Recompute()
	}
}
