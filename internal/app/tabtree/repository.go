// Package tabtree implements the tab-tree reconciliation and structural-edit
// engine: an id-indexed forest of tracked tabs, the structural editor that is
// its only writer, and the derived views (search, window groups) computed
// from it. All state lives in an explicit Engine value; there is no package
// level state.
package tabtree

import (
	"github.com/arbor-browser/arbor/internal/domain/entity"
)

// Repository owns the forest: node storage plus the parent/child and
// external-id indices. Relationships are stored as ids, never as embedded
// pointers, so the children index can always be rebuilt from ParentID alone.
type Repository struct {
	nodes      map[entity.NodeID]*entity.TreeNode
	byExternal map[int]entity.NodeID
	children   map[entity.NodeID][]entity.NodeID
	roots      []entity.NodeID
}

// NewRepository creates an empty forest.
func NewRepository() *Repository {
	return &Repository{
		nodes:      make(map[entity.NodeID]*entity.TreeNode),
		byExternal: make(map[int]entity.NodeID),
		children:   make(map[entity.NodeID][]entity.NodeID),
	}
}

// Len returns the number of tracked nodes.
func (r *Repository) Len() int {
	return len(r.nodes)
}

// Insert adds a node to the forest. When the node names a parent that does
// not exist, it degrades to a root insertion instead of failing: a
// late-arriving or already-closed parent must not corrupt the forest.
// Inserting an id that is already tracked is rejected.
func (r *Repository) Insert(node *entity.TreeNode) error {
	if node == nil {
		return ErrNodeNotFound
	}
	if _, ok := r.nodes[node.ID]; ok {
		return ErrNodeExists
	}

	if node.ParentID != "" {
		parent, ok := r.nodes[node.ParentID]
		if !ok {
			node.ParentID = ""
		} else {
			node.Depth = parent.Depth + 1
			node.WindowID = parent.WindowID
		}
	}
	if node.ParentID == "" {
		node.Depth = 0
	}

	r.nodes[node.ID] = node
	r.byExternal[node.ExternalID] = node.ID
	r.attach(node, node.ParentID, -1)
	return nil
}

// Remove deletes a node and promotes its children to the removed node's own
// parent, or to the root list if it had none. Children are spliced into the
// removed node's former sibling slot so their relative order is preserved,
// and no surviving node is ever left with a dangling ParentID.
func (r *Repository) Remove(id entity.NodeID) error {
	node, ok := r.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}

	promoted := append([]entity.NodeID(nil), r.children[id]...)
	slot := node.SiblingIndex
	parentID := node.ParentID

	r.detach(node)
	delete(r.nodes, id)
	delete(r.children, id)
	if r.byExternal[node.ExternalID] == id {
		delete(r.byExternal, node.ExternalID)
	}

	for i, childID := range promoted {
		child, ok := r.nodes[childID]
		if !ok {
			continue
		}
		child.ParentID = parentID
		r.spliceIn(childID, parentID, slot+i)
		r.recomputeDepths(child)
	}
	return nil
}

// FindByID looks a node up by internal id.
func (r *Repository) FindByID(id entity.NodeID) (*entity.TreeNode, bool) {
	node, ok := r.nodes[id]
	return node, ok
}

// FindByExternalID looks a node up by the host's tab id.
func (r *Repository) FindByExternalID(externalID int) (*entity.TreeNode, bool) {
	id, ok := r.byExternal[externalID]
	if !ok {
		return nil, false
	}
	return r.nodes[id], true
}

// FindByURL returns the first node with the given url in Flatten order.
func (r *Repository) FindByURL(url string) (*entity.TreeNode, bool) {
	for _, node := range r.Flatten() {
		if node.URL == url {
			return node, true
		}
	}
	return nil, false
}

// FindAllByURL returns every node with the given url in Flatten order.
func (r *Repository) FindAllByURL(url string) []*entity.TreeNode {
	var matches []*entity.TreeNode
	for _, node := range r.Flatten() {
		if node.URL == url {
			matches = append(matches, node)
		}
	}
	return matches
}

// Children returns the ordered child ids of a node.
func (r *Repository) Children(id entity.NodeID) []entity.NodeID {
	return append([]entity.NodeID(nil), r.children[id]...)
}

// Roots returns the ordered root ids.
func (r *Repository) Roots() []entity.NodeID {
	return append([]entity.NodeID(nil), r.roots...)
}

// Flatten returns every node depth-first, parent before children, siblings in
// order. This is the canonical rendering and host-reconciliation order. The
// walk also refreshes each node's IsVisible flag: visible means no ancestor
// is collapsed.
func (r *Repository) Flatten() []*entity.TreeNode {
	out := make([]*entity.TreeNode, 0, len(r.nodes))
	var walk func(id entity.NodeID, visible bool)
	walk = func(id entity.NodeID, visible bool) {
		node, ok := r.nodes[id]
		if !ok {
			return
		}
		node.IsVisible = visible
		out = append(out, node)
		for _, childID := range r.children[id] {
			walk(childID, visible && !node.IsCollapsed)
		}
	}
	for _, rootID := range r.roots {
		walk(rootID, true)
	}
	return out
}

// Subtree returns the node and all of its descendants depth-first, parent
// before children.
func (r *Repository) Subtree(id entity.NodeID) []*entity.TreeNode {
	var out []*entity.TreeNode
	var walk func(id entity.NodeID)
	walk = func(id entity.NodeID) {
		node, ok := r.nodes[id]
		if !ok {
			return
		}
		out = append(out, node)
		for _, childID := range r.children[id] {
			walk(childID)
		}
	}
	walk(id)
	return out
}

// SubtreePostOrder returns the node and all of its descendants with every
// descendant before its ancestor. This is the order a recursive close uses so
// children are gone before the parent they depend on.
func (r *Repository) SubtreePostOrder(id entity.NodeID) []*entity.TreeNode {
	var out []*entity.TreeNode
	var walk func(id entity.NodeID)
	walk = func(id entity.NodeID) {
		node, ok := r.nodes[id]
		if !ok {
			return
		}
		for _, childID := range r.children[id] {
			walk(childID)
		}
		out = append(out, node)
	}
	walk(id)
	return out
}

// WindowGroups recomputes the windowId to ordered-node-list mapping by a full
// traversal in Flatten order.
func (r *Repository) WindowGroups() map[int][]*entity.TreeNode {
	groups := make(map[int][]*entity.TreeNode)
	for _, node := range r.Flatten() {
		groups[node.WindowID] = append(groups[node.WindowID], node)
	}
	return groups
}

// Ancestors walks ParentID upward from the given node, excluding the node
// itself. The walk carries a visited set so an already-corrupt forest
// terminates instead of looping; corrupt is true when a repeated id was seen.
func (r *Repository) Ancestors(id entity.NodeID) (chain []entity.NodeID, corrupt bool) {
	seen := map[entity.NodeID]struct{}{id: {}}
	node, ok := r.nodes[id]
	if !ok {
		return nil, false
	}
	for node.ParentID != "" {
		parentID := node.ParentID
		if _, dup := seen[parentID]; dup {
			return chain, true
		}
		seen[parentID] = struct{}{}
		chain = append(chain, parentID)
		parent, ok := r.nodes[parentID]
		if !ok {
			break
		}
		node = parent
	}
	return chain, false
}

// Clear drops every node. Used by the full resync before an authoritative
// rebuild.
func (r *Repository) Clear() {
	r.nodes = make(map[entity.NodeID]*entity.TreeNode)
	r.byExternal = make(map[int]entity.NodeID)
	r.children = make(map[entity.NodeID][]entity.NodeID)
	r.roots = nil
}

// attach places a node under parentID ("" for the root list) at the given
// index, appending when index is negative or past the end, then recompacts
// sibling indices.
func (r *Repository) attach(node *entity.TreeNode, parentID entity.NodeID, index int) {
	node.ParentID = parentID
	r.spliceIn(node.ID, parentID, index)
}

func (r *Repository) spliceIn(id entity.NodeID, parentID entity.NodeID, index int) {
	list := r.siblingList(parentID)
	if index < 0 || index > len(list) {
		index = len(list)
	}
	list = append(list, "")
	copy(list[index+1:], list[index:])
	list[index] = id
	r.setSiblingList(parentID, list)
	r.compactSiblings(parentID)
}

// detach removes a node from its parent's child list (or the root list) and
// recompacts the remainder's sibling indices. The node stays in the store.
func (r *Repository) detach(node *entity.TreeNode) {
	list := r.siblingList(node.ParentID)
	for i, id := range list {
		if id == node.ID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	r.setSiblingList(node.ParentID, list)
	r.compactSiblings(node.ParentID)
}

func (r *Repository) siblingList(parentID entity.NodeID) []entity.NodeID {
	if parentID == "" {
		return r.roots
	}
	return r.children[parentID]
}

func (r *Repository) setSiblingList(parentID entity.NodeID, list []entity.NodeID) {
	if parentID == "" {
		r.roots = list
	} else if len(list) == 0 {
		delete(r.children, parentID)
	} else {
		r.children[parentID] = list
	}
}

// compactSiblings renumbers SiblingIndex densely from zero for the children
// of parentID ("" for roots).
func (r *Repository) compactSiblings(parentID entity.NodeID) {
	for i, id := range r.siblingList(parentID) {
		if node, ok := r.nodes[id]; ok {
			node.SiblingIndex = i
		}
	}
}

// recomputeDepths fixes Depth for a node and every descendant after its
// parent changed.
func (r *Repository) recomputeDepths(node *entity.TreeNode) {
	if node.ParentID == "" {
		node.Depth = 0
	} else if parent, ok := r.nodes[node.ParentID]; ok {
		node.Depth = parent.Depth + 1
	}
	for _, childID := range r.children[node.ID] {
		if child, ok := r.nodes[childID]; ok {
			r.recomputeDepths(child)
		}
	}
}

// propagateWindow sets WindowID on a node and every descendant. Moving a
// subtree across windows must keep invariant 4 (a node's window equals all of
// its descendants' windows).
func (r *Repository) propagateWindow(node *entity.TreeNode, windowID int) {
	node.WindowID = windowID
	for _, childID := range r.children[node.ID] {
		if child, ok := r.nodes[childID]; ok {
			r.propagateWindow(child, windowID)
		}
	}
}
