// Package entity contains domain entities representing core business concepts.
// These entities are pure Go types with no infrastructure dependencies.
package entity

import "time"

// NodeID uniquely identifies a tracked tab inside the engine.
// It is stable for the lifetime of the node and must never be confused
// with the host's tab id, which the host may recycle after a tab closes.
type NodeID string

// TreeNode represents one browser tab tracked by the engine, including its
// placement in the tab forest. Parent/child relationships are stored as id
// references only; the children index is owned and derived by the repository,
// so a corrupt snapshot cannot encode a genuine reference cycle.
type TreeNode struct {
	ID         NodeID
	ExternalID int // host tab id, recycled by the host

	WindowID     int
	ParentID     NodeID // empty means root
	Depth        int    // 0 for roots, parent.Depth+1 otherwise
	SiblingIndex int    // dense, zero-based position among siblings

	Title      string
	URL        string
	FaviconURL string

	IsActive       bool
	IsLoading      bool
	IsAudioPlaying bool
	IsPinned       bool
	IsCollapsed    bool
	IsVisible      bool // derived: no ancestor is collapsed, refreshed by Flatten
	IsHighlighted  bool

	CreatedAt    time.Time
	LastAccessed time.Time
	LastModified time.Time
}

// NewTreeNode creates a root-level node with default flags.
func NewTreeNode(id NodeID, externalID int, windowID int) *TreeNode {
	now := time.Now()
	return &TreeNode{
		ID:           id,
		ExternalID:   externalID,
		WindowID:     windowID,
		IsVisible:    true,
		CreatedAt:    now,
		LastAccessed: now,
		LastModified: now,
	}
}

// IsRoot returns true if the node has no parent.
func (n *TreeNode) IsRoot() bool {
	return n.ParentID == ""
}

// Clone returns a full value copy of the node. Snapshots must hold copies,
// never references, so later edits cannot leak into an undo restore.
func (n *TreeNode) Clone() *TreeNode {
	c := *n
	return &c
}

// Touch stamps the node as modified.
func (n *TreeNode) Touch(now time.Time) {
	n.LastModified = now
}
