package tabtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-browser/arbor/internal/domain/entity"
)

func TestOpenerChainBuildsTree(t *testing.T) {
	e, h := newTestEngine(t)

	a, extA := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, extB := createTab(t, e, h, 1, "https://b.example", "B", &extA)
	c, _ := createTab(t, e, h, 1, "https://c.example", "C", &extB)

	assert.Equal(t, []entity.NodeID{a, b, c}, flattenIDs(e))
	assert.Equal(t, 0, mustFind(t, e, a).Depth)
	assert.Equal(t, 1, mustFind(t, e, b).Depth)
	assert.Equal(t, 2, mustFind(t, e, c).Depth)
	assert.Equal(t, entity.NodeID(b), mustFind(t, e, c).ParentID)
}

func TestTabCreatedReplayRefreshesContent(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	id, extID := createTab(t, e, h, 1, "https://a.example", "A", nil)

	replay, ok := h.Tab(extID)
	require.True(t, ok)
	replay.Title = "A (revisited)"
	replay.FaviconURL = "https://a.example/favicon.ico"
	replay.Pinned = true
	replay.Audible = true
	replay.Loading = true
	e.Apply(ctx, Event{Type: EventTabCreated, Tab: &replay})

	assert.Equal(t, 1, e.repo.Len())
	node := mustFind(t, e, id)
	assert.Equal(t, "A (revisited)", node.Title)
	assert.Equal(t, "https://a.example/favicon.ico", node.FaviconURL)
	assert.True(t, node.IsPinned)
	assert.True(t, node.IsAudioPlaying)
	assert.True(t, node.IsLoading)
}

func TestTabRemovedPromotesChildren(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	chain := createChain(t, e, h, 3) // a -> b -> c
	extB := mustFind(t, e, chain[1]).ExternalID

	e.Apply(ctx, Event{Type: EventTabRemoved, TabID: extB})

	c := mustFind(t, e, chain[2])
	assert.Equal(t, entity.NodeID(chain[0]), c.ParentID)
	assert.Equal(t, 1, c.Depth)
	assert.Equal(t, 2, e.repo.Len())
}

func TestTabUpdatedAppliesOnlyChangedFields(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	id, extID := createTab(t, e, h, 1, "https://a.example", "A", nil)

	node := mustFind(t, e, id)
	before := node.LastModified

	title := "A, renamed"
	loading := true
	e.Apply(ctx, Event{Type: EventTabUpdated, TabID: extID, Change: &TabChange{Title: &title, Loading: &loading}})

	assert.Equal(t, "A, renamed", node.Title)
	assert.True(t, node.IsLoading)
	assert.True(t, node.LastModified.After(before) || node.LastModified.Equal(before))

	// A change set that matches current state does not re-stamp the node.
	stamped := node.LastModified
	e.Apply(ctx, Event{Type: EventTabUpdated, TabID: extID, Change: &TabChange{Title: &title}})
	assert.Equal(t, stamped, node.LastModified)
}

func TestTabActivatedIsUnique(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	a, extA := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, extB := createTab(t, e, h, 1, "https://b.example", "B", nil)

	e.Apply(ctx, Event{Type: EventTabActivated, TabID: extA})
	e.Apply(ctx, Event{Type: EventTabActivated, TabID: extB})

	assert.False(t, mustFind(t, e, a).IsActive)
	assert.True(t, mustFind(t, e, b).IsActive)
}

func TestActivateTabFocusesItsWindow(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	h.AddWindow(2, false)
	a, _ := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, _ := createTab(t, e, h, 2, "https://b.example", "B", nil)

	require.NoError(t, e.ActivateTab(ctx, b))
	assert.True(t, mustFind(t, e, b).IsActive)
	assert.Equal(t, 2, e.FocusedWindow())

	require.NoError(t, e.ActivateTab(ctx, a))
	assert.False(t, mustFind(t, e, b).IsActive)
	assert.Equal(t, 1, e.FocusedWindow())

	require.ErrorIs(t, e.ActivateTab(ctx, "ghost"), ErrNodeNotFound)
}

func TestTabMovedAcrossWindowsPromotesSubtree(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	h.AddWindow(2, false)
	chain := createChain(t, e, h, 2) // a -> b
	extA := mustFind(t, e, chain[0]).ExternalID

	e.Apply(ctx, Event{Type: EventTabMoved, TabID: extA, Move: &MoveInfo{WindowID: 2, ToIndex: 0}})

	a := mustFind(t, e, chain[0])
	b := mustFind(t, e, chain[1])
	assert.True(t, a.IsRoot())
	assert.Equal(t, 2, a.WindowID)
	assert.Equal(t, 2, b.WindowID)
	assert.Equal(t, entity.NodeID(chain[0]), b.ParentID)
}

func TestTabMovedNestedInWindowIgnored(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	chain := createChain(t, e, h, 2) // a -> b
	extB := mustFind(t, e, chain[1]).ExternalID

	e.Apply(ctx, Event{Type: EventTabMoved, TabID: extB, Move: &MoveInfo{WindowID: 1, FromIndex: 1, ToIndex: 0}})

	// Tree order stays authoritative for nested nodes.
	assert.Equal(t, entity.NodeID(chain[0]), mustFind(t, e, chain[1]).ParentID)
}

func TestTabMovedRepositionsRoot(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	a, _ := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, _ := createTab(t, e, h, 1, "https://b.example", "B", nil)
	c, extC := createTab(t, e, h, 1, "https://c.example", "C", nil)

	e.Apply(ctx, Event{Type: EventTabMoved, TabID: extC, Move: &MoveInfo{WindowID: 1, FromIndex: 2, ToIndex: 0}})

	assert.Equal(t, []entity.NodeID{c, a, b}, flattenIDs(e))
}

func TestWindowRemovedDropsItsNodes(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	h.AddWindow(2, false)
	keep, _ := createTab(t, e, h, 1, "https://keep.example", "Keep", nil)
	_, extGone := createTab(t, e, h, 2, "https://gone.example", "Gone", nil)
	createTab(t, e, h, 2, "https://gone2.example", "Gone child", &extGone)

	e.Apply(ctx, Event{Type: EventWindowRemoved, WindowID: 2})

	assert.Equal(t, 1, e.repo.Len())
	mustFind(t, e, keep)
	assert.Equal(t, []int{1}, e.WindowIDs())
}

func TestWindowCreatedTracksEmptyWindow(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	createTab(t, e, h, 1, "https://a.example", "A", nil)

	// A new window is listed before its first tab arrives.
	e.Apply(ctx, Event{Type: EventWindowCreated, WindowID: 7})
	assert.Equal(t, []int{1, 7}, e.WindowIDs())
	assert.Empty(t, e.TabsInWindow(7))

	e.Apply(ctx, Event{Type: EventWindowRemoved, WindowID: 7})
	assert.Equal(t, []int{1}, e.WindowIDs())
}

func TestWindowFocusChanged(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	h.AddWindow(2, false)
	createTab(t, e, h, 2, "https://a.example", "A", nil)

	assert.Equal(t, -1, e.FocusedWindow())
	e.Apply(ctx, Event{Type: EventWindowFocusChanged, WindowID: 2})
	assert.Equal(t, 2, e.FocusedWindow())
}

func TestEventsForUnknownTabsAreDropped(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	createTab(t, e, h, 1, "https://a.example", "A", nil)

	title := "nope"
	e.Apply(ctx, Event{Type: EventTabRemoved, TabID: 999})
	e.Apply(ctx, Event{Type: EventTabUpdated, TabID: 999, Change: &TabChange{Title: &title}})
	e.Apply(ctx, Event{Type: EventTabMoved, TabID: 999, Move: &MoveInfo{WindowID: 1}})
	e.Apply(ctx, Event{Type: EventTabActivated, TabID: 999})
	e.Apply(ctx, Event{Type: "not_a_real_event"})

	assert.Equal(t, 1, e.repo.Len())
}

func TestSetCollapsed(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()
	id, _ := createTab(t, e, h, 1, "https://a.example", "A", nil)

	require.NoError(t, e.SetCollapsed(ctx, id, true))
	assert.True(t, mustFind(t, e, id).IsCollapsed)
	require.NoError(t, e.SetCollapsed(ctx, id, true)) // no-op
	require.NoError(t, e.SetCollapsed(ctx, id, false))
	assert.False(t, mustFind(t, e, id).IsCollapsed)

	require.ErrorIs(t, e.SetCollapsed(ctx, "ghost", true), ErrNodeNotFound)
}

func TestTabsInWindowFollowsFlattenOrder(t *testing.T) {
	e, h := newTestEngine(t)
	h.AddWindow(2, false)
	a, extA := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, _ := createTab(t, e, h, 1, "https://b.example", "B", &extA)
	createTab(t, e, h, 2, "https://x.example", "X", nil)

	tabs := e.TabsInWindow(1)
	require.Len(t, tabs, 2)
	assert.Equal(t, a, tabs[0].ID)
	assert.Equal(t, b, tabs[1].ID)
	assert.Len(t, e.TabsInWindow(2), 1)
	assert.Empty(t, e.TabsInWindow(42))
}
