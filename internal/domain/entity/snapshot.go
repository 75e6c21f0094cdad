package entity

import "time"

// DragSnapshot captures a node's placement before a drag so the move can be
// undone once. At most one drag snapshot exists at a time; starting a new
// drag overwrites it.
type DragSnapshot struct {
	NodeID       NodeID
	ParentID     NodeID
	Depth        int
	SiblingIndex int
	RootIndex    int // position in the root list, -1 if the node was not a root
	CapturedAt   time.Time
}

// CloseSnapshot holds deep copies of every node removed by the most recent
// close operation, in collection (post-order) order. At most one exists at a
// time and it expires after the configured undo window.
type CloseSnapshot struct {
	Nodes     []*TreeNode
	Timestamp time.Time
}

// Count returns the number of snapshotted nodes.
func (s *CloseSnapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// Expired reports whether the snapshot is older than the undo window.
func (s *CloseSnapshot) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.Timestamp) > window
}

// UndoNotification is the transient record a UI shows after a close,
// offering the time-boxed undo.
type UndoNotification struct {
	Message   string
	TabCount  int
	Timestamp time.Time
}
