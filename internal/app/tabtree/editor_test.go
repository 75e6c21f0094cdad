package tabtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/domain/entity"
)

func newTestEditor(t *testing.T) (*StructuralEditor, *Repository) {
	t.Helper()
	repo := NewRepository()
	return NewStructuralEditor(repo, NewWindowGroupTracker(repo)), repo
}

func TestEditorReparentToRoot(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(newNode("a", "", 1)))
	require.NoError(t, repo.Insert(newNode("b", "a", 2)))
	require.NoError(t, repo.Insert(newNode("c", "b", 3)))

	require.NoError(t, editor.Reparent(ctx, "c", "", -1))

	c, _ := repo.FindByID("c")
	assert.True(t, c.IsRoot())
	assert.Equal(t, 0, c.Depth)
	assert.Empty(t, repo.Children("b"))
	assert.Equal(t, []entity.NodeID{"a", "c"}, repo.Roots())
}

func TestEditorReparentRejectsCycle(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(newNode("a", "", 1)))
	require.NoError(t, repo.Insert(newNode("b", "a", 2)))
	require.NoError(t, repo.Insert(newNode("c", "b", 3)))

	err := editor.Reparent(ctx, "a", "c", -1)
	require.ErrorIs(t, err, ErrCycleDetected)

	// Nothing moved.
	a, _ := repo.FindByID("a")
	b, _ := repo.FindByID("b")
	c, _ := repo.FindByID("c")
	assert.True(t, a.IsRoot())
	assert.Equal(t, entity.NodeID("a"), b.ParentID)
	assert.Equal(t, entity.NodeID("b"), c.ParentID)
	assert.Equal(t, 2, c.Depth)
}

func TestEditorReparentSelf(t *testing.T) {
	editor, repo := newTestEditor(t)
	require.NoError(t, repo.Insert(newNode("a", "", 1)))
	require.ErrorIs(t, editor.Reparent(context.Background(), "a", "a", -1), ErrReparentSelf)
}

func TestEditorReparentMissingNodes(t *testing.T) {
	editor, repo := newTestEditor(t)
	require.NoError(t, repo.Insert(newNode("a", "", 1)))

	assert.ErrorIs(t, editor.Reparent(context.Background(), "ghost", "a", -1), ErrNodeNotFound)
	assert.ErrorIs(t, editor.Reparent(context.Background(), "a", "ghost", -1), ErrNodeNotFound)
}

func TestEditorReparentAtIndex(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(newNode("p", "", 1)))
	require.NoError(t, repo.Insert(newNode("x", "p", 2)))
	require.NoError(t, repo.Insert(newNode("y", "p", 3)))
	require.NoError(t, repo.Insert(newNode("z", "", 4)))

	require.NoError(t, editor.Reparent(ctx, "z", "p", 0))
	assert.Equal(t, []entity.NodeID{"z", "x", "y"}, repo.Children("p"))

	// Out-of-range index appends.
	require.NoError(t, editor.Reparent(ctx, "z", "p", 42))
	assert.Equal(t, []entity.NodeID{"x", "y", "z"}, repo.Children("p"))
}

func TestEditorReparentAcrossWindowsPropagates(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()

	a := entity.NewTreeNode("a", 1, 1)
	child := newNode("a1", "a", 2)
	other := entity.NewTreeNode("b", 3, 2)
	require.NoError(t, repo.Insert(a))
	require.NoError(t, repo.Insert(child))
	require.NoError(t, repo.Insert(other))

	require.NoError(t, editor.Reparent(ctx, "a", "b", -1))

	assert.Equal(t, 2, a.WindowID)
	assert.Equal(t, 2, child.WindowID)
	assert.Equal(t, 1, a.Depth)
	assert.Equal(t, 2, child.Depth)
}

func TestEditorAddChildFromExternalCreate(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()

	parent := editor.AddChildFromExternalCreate(ctx, "a", port.HostTab{ID: 10, WindowID: 1, URL: "https://p.example", Title: "Parent"})
	require.NotNil(t, parent)
	assert.True(t, parent.IsRoot())

	opener := 10
	child := editor.AddChildFromExternalCreate(ctx, "b", port.HostTab{ID: 11, WindowID: 1, OpenerID: &opener})
	require.NotNil(t, child)
	assert.Equal(t, entity.NodeID("a"), child.ParentID)
	assert.Equal(t, 1, child.Depth)

	// Unknown opener degrades to root.
	stale := 999
	orphan := editor.AddChildFromExternalCreate(ctx, "c", port.HostTab{ID: 12, WindowID: 1, OpenerID: &stale})
	require.NotNil(t, orphan)
	assert.True(t, orphan.IsRoot())

	assert.Equal(t, 3, repo.Len())
}

func TestEditorAddChildDuplicateIDKeepsExisting(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()

	first := editor.AddChildFromExternalCreate(ctx, "a", port.HostTab{ID: 10, WindowID: 1, Title: "First"})
	second := editor.AddChildFromExternalCreate(ctx, "a", port.HostTab{ID: 11, WindowID: 1, Title: "Second"})

	assert.Same(t, first, second)
	assert.Equal(t, "First", second.Title)
	assert.Equal(t, 1, repo.Len())
}

func TestEditorRemovePromotes(t *testing.T) {
	editor, repo := newTestEditor(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(newNode("a", "", 1)))
	require.NoError(t, repo.Insert(newNode("b", "a", 2)))
	require.NoError(t, repo.Insert(newNode("c", "b", 3)))

	require.NoError(t, editor.Remove(ctx, "b"))

	c, _ := repo.FindByID("c")
	assert.Equal(t, entity.NodeID("a"), c.ParentID)
	assert.Equal(t, 1, c.Depth)
}
