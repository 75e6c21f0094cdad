package tabtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/infrastructure/host"
)

// newTestEngine wires an engine over a fresh in-memory host with the default
// engine configuration and no persistence.
func newTestEngine(t *testing.T) (*Engine, *host.MemoryHost) {
	t.Helper()
	h := host.NewMemoryHost()
	return NewEngine(h, nil, config.DefaultConfig().Engine), h
}

// createTab seeds a tab on the host and replays its creation event into the
// engine, returning the internal node id and the host tab id.
func createTab(t *testing.T, e *Engine, h *host.MemoryHost, windowID int, url, title string, opener *int) (entity.NodeID, int) {
	t.Helper()
	extID := h.AddTab(windowID, url, title, opener)
	tab, ok := h.Tab(extID)
	require.True(t, ok)
	e.Apply(context.Background(), Event{Type: EventTabCreated, Tab: &tab})
	node, ok := e.repo.FindByExternalID(extID)
	require.True(t, ok, "engine did not track created tab %d", extID)
	return node.ID, extID
}

// createChain seeds n tabs where each is opened from the previous, returning
// internal ids root-first.
func createChain(t *testing.T, e *Engine, h *host.MemoryHost, n int) []entity.NodeID {
	t.Helper()
	ids := make([]entity.NodeID, 0, n)
	var opener *int
	for i := 0; i < n; i++ {
		id, extID := createTab(t, e, h, 1, "https://example.com", "Example", opener)
		ids = append(ids, id)
		ext := extID
		opener = &ext
	}
	return ids
}

// flattenIDs projects Flatten output to ids for order assertions.
func flattenIDs(e *Engine) []entity.NodeID {
	nodes := e.Flatten()
	ids := make([]entity.NodeID, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}
	return ids
}

// mustFind fails the test when the node is not tracked.
func mustFind(t *testing.T, e *Engine, id entity.NodeID) *entity.TreeNode {
	t.Helper()
	node, ok := e.repo.FindByID(id)
	require.True(t, ok, "node %s not tracked", id)
	return node
}
