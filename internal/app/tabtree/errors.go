package tabtree

import "errors"

// Sentinel errors returned by engine operations. Mutating operations report
// failure through these values (wrapped where context helps); nothing in this
// package panics across its API boundary.
var (
	// ErrNodeNotFound is returned when an id resolves to no tracked node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNodeExists is returned when inserting an id that is already tracked.
	ErrNodeExists = errors.New("node already tracked")

	// ErrReparentSelf is returned when a node is reparented to itself.
	ErrReparentSelf = errors.New("cannot reparent a node to itself")

	// ErrCycleDetected is returned when a reparent would make a node its own
	// ancestor, or when the ancestor walk finds an already-corrupt cycle.
	ErrCycleDetected = errors.New("reparent would create a cycle")

	// ErrInvalidDropTarget is returned when the drop target is the dragged
	// node itself or one of its descendants.
	ErrInvalidDropTarget = errors.New("drop target is the dragged node or one of its descendants")

	// ErrNoDragSnapshot is returned by UndoDrag when no drag was recorded.
	ErrNoDragSnapshot = errors.New("no drag to undo")

	// ErrNothingToUndo is returned by UndoClose when no close snapshot exists.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrUndoExpired is returned by UndoClose when the snapshot is older than
	// the configured undo window. The stale snapshot is cleared.
	ErrUndoExpired = errors.New("undo expired")
)
