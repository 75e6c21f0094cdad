package tabtree

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/domain/entity"
	"github.com/arbor-browser/arbor/internal/logging"
)

// SyncAllTabs replaces the forest with the host's authoritative tab list.
// This is the correction path for any drift the optimistic local edits
// accumulated: the forest is rebuilt window by window in index order,
// parentage re-linked through opener hints, and the drift set cleared.
// Internal ids, collapse state, and timestamps are preserved for tabs whose
// host id survived, so a resync does not cosmetically reset the tree.
func (e *Engine) SyncAllTabs(ctx context.Context) error {
	if e.host == nil {
		return errors.New("sync: no host configured")
	}

	var (
		tabs    []port.HostTab
		windows []port.HostWindow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tabs, err = e.host.Query(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		windows, err = e.host.Windows(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := make(map[int]*entity.TreeNode, e.repo.Len())
	for _, node := range e.repo.Flatten() {
		previous[node.ExternalID] = node
	}

	e.repo.Clear()
	e.windows.Reset()
	e.drift = make(map[entity.NodeID]struct{})

	sort.SliceStable(tabs, func(i, j int) bool {
		if tabs[i].WindowID != tabs[j].WindowID {
			return tabs[i].WindowID < tabs[j].WindowID
		}
		return tabs[i].Index < tabs[j].Index
	})

	var active *entity.TreeNode
	for _, tab := range tabs {
		id := e.nextID()
		old := previous[tab.ID]
		if old != nil {
			id = old.ID
		}
		node := e.editor.AddChildFromExternalCreate(ctx, id, tab)
		if node == nil {
			continue
		}
		if old != nil {
			node.IsCollapsed = old.IsCollapsed
			node.IsHighlighted = old.IsHighlighted
			node.CreatedAt = old.CreatedAt
			node.LastAccessed = old.LastAccessed
		}
		if tab.Active {
			active = node
		}
	}
	if active != nil {
		e.activate(active)
	}

	for _, window := range windows {
		e.windows.Register(window.ID)
		if window.Focused {
			e.windows.SetFocused(window.ID)
		}
	}

	e.applyStoredCollapsed(ctx)
	e.windows.Recompute()

	logging.FromContext(ctx).Info().
		Int("tabs", len(tabs)).
		Int("windows", len(windows)).
		Msg("full sync complete")
	return nil
}

// applyStoredCollapsed re-applies the persisted collapsed set to whichever
// of its ids still exist.
func (e *Engine) applyStoredCollapsed(ctx context.Context) {
	if e.store == nil {
		return
	}
	state, err := e.store.LoadCollapsed(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to load collapsed set")
		return
	}
	for _, raw := range state.IDs {
		if node, ok := e.repo.FindByID(entity.NodeID(raw)); ok {
			node.IsCollapsed = true
		}
	}
}
