package model

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-browser/arbor/internal/app/tabtree"
	"github.com/arbor-browser/arbor/internal/cli/styles"
	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/infrastructure/host"
)

func newTestInspector(t *testing.T) InspectorModel {
	t.Helper()
	engine := tabtree.NewEngine(host.NewDemoHost(), nil, config.DefaultConfig().Engine)
	require.NoError(t, engine.SyncAllTabs(context.Background()))
	theme := styles.NewThemeFromPalette(styles.DarkPalette())
	return NewInspectorModel(context.Background(), engine, theme)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRefreshShowsWholeForest(t *testing.T) {
	m := newTestInspector(t)
	assert.Len(t, m.rows, len(m.engine.Flatten()))
}

func TestCollapseHidesDescendants(t *testing.T) {
	m := newTestInspector(t)
	total := len(m.rows)
	require.True(t, m.rows[0].hasChildren, "demo forest should start with a branch node")

	updated, _ := m.Update(key(" "))
	m = updated.(InspectorModel)

	assert.Less(t, len(m.rows), total)
	assert.True(t, m.rows[0].node.IsCollapsed)

	// Toggling again restores the full listing.
	updated, _ = m.Update(key(" "))
	m = updated.(InspectorModel)
	assert.Len(t, m.rows, total)
}

func TestCloseBranchAsksForConfirmation(t *testing.T) {
	m := newTestInspector(t)
	require.True(t, m.rows[0].hasChildren)
	total := len(m.rows)

	updated, _ := m.Update(key("d"))
	m = updated.(InspectorModel)
	assert.Equal(t, modeConfirm, m.mode)
	assert.Greater(t, m.confirmCount, 1)

	// Declining keeps the forest intact.
	updated, _ = m.Update(key("n"))
	m = updated.(InspectorModel)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, m.rows, total)
}

func TestCloseAndUndoRoundTrip(t *testing.T) {
	m := newTestInspector(t)
	total := len(m.rows)
	require.True(t, m.rows[0].hasChildren)

	updated, _ := m.Update(key("d"))
	m = updated.(InspectorModel)
	updated, _ = m.Update(key("y"))
	m = updated.(InspectorModel)
	assert.Less(t, len(m.rows), total)

	updated, _ = m.Update(key("u"))
	m = updated.(InspectorModel)
	assert.Len(t, m.rows, total)
}

func TestSearchHighlightsMatches(t *testing.T) {
	m := newTestInspector(t)

	updated, _ := m.Update(key("/"))
	m = updated.(InspectorModel)
	assert.Equal(t, modeSearch, m.mode)

	updated, _ = m.Update(key("wikipedia"))
	m = updated.(InspectorModel)
	assert.NotEmpty(t, m.matches)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(InspectorModel)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, m.matches)
}
