// Package model contains the Bubble Tea models for the arbor TUI.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arbor-browser/arbor/internal/app/tabtree"
	"github.com/arbor-browser/arbor/internal/cli/styles"
	"github.com/arbor-browser/arbor/internal/domain/entity"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeConfirm
)

// row is one visible line of the forest. Descendants of collapsed branches
// carry IsVisible false and never become rows.
type row struct {
	node        *entity.TreeNode
	hasChildren bool
}

// InspectorModel is the Bubble Tea model for the interactive forest
// inspector. Every key maps directly onto one engine operation.
type InspectorModel struct {
	engine *tabtree.Engine
	theme  *styles.Theme
	ctx    context.Context

	search  textinput.Model
	mode    mode
	rows    []row
	cursor  int
	matches map[entity.NodeID][]tabtree.Match

	dragged       entity.NodeID
	confirmTarget entity.NodeID
	confirmCount  int

	status string
	width  int
	height int
}

// NewInspectorModel creates the inspector over an already-synced engine.
func NewInspectorModel(ctx context.Context, engine *tabtree.Engine, theme *styles.Theme) InspectorModel {
	m := InspectorModel{
		engine:  engine,
		theme:   theme,
		ctx:     ctx,
		search:  styles.NewSearchInput(theme),
		matches: make(map[entity.NodeID][]tabtree.Match),
		width:   80,
		height:  24,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m InspectorModel) Init() tea.Cmd {
	return textinput.Blink
}

// refresh rebuilds the visible rows from the engine and clamps the cursor.
func (m *InspectorModel) refresh() {
	nodes := m.engine.Flatten()
	rows := make([]row, 0, len(nodes))
	for i, node := range nodes {
		if !node.IsVisible {
			continue
		}
		hasChildren := i+1 < len(nodes) && nodes[i+1].Depth > node.Depth
		rows = append(rows, row{node: node, hasChildren: hasChildren})
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *InspectorModel) selected() (*entity.TreeNode, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursor].node, true
}

// Update implements tea.Model.
func (m InspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m InspectorModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case " ":
		if node, ok := m.selected(); ok {
			if err := m.engine.SetCollapsed(m.ctx, node.ID, !node.IsCollapsed); err != nil {
				m.status = err.Error()
			}
			m.refresh()
		}

	case "enter":
		if node, ok := m.selected(); ok {
			if err := m.engine.ActivateTab(m.ctx, node.ID); err != nil {
				m.status = err.Error()
			} else {
				m.status = "activated " + node.Title
			}
			m.refresh()
		}

	case "m":
		if node, ok := m.selected(); ok {
			if err := m.engine.StartDrag(node.ID); err != nil {
				m.status = err.Error()
			} else {
				m.dragged = node.ID
				m.status = "dragging " + node.Title
			}
		}

	case "p":
		if target, ok := m.selected(); ok && m.dragged != "" {
			m.completeDrop(target.ID)
		}
	case "P":
		if m.dragged != "" {
			m.completeDrop("")
		}
	case "U":
		result, err := m.engine.UndoDrag(m.ctx)
		if err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("drag undone (%s)", result.NodeID)
		}
		m.dragged = ""
		m.refresh()

	case "d":
		if node, ok := m.selected(); ok {
			if m.engine.NeedsConfirmation(node.ID) {
				m.mode = modeConfirm
				m.confirmTarget = node.ID
				m.confirmCount = m.engine.CloseCount(node.ID)
			} else {
				m.closeSubtree(node.ID)
			}
		}

	case "u":
		result, err := m.engine.UndoClose(m.ctx)
		if err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("restored %d tabs", len(result.RestoredIDs))
		}
		m.refresh()

	case "r":
		if err := m.engine.SyncAllTabs(m.ctx); err != nil {
			m.status = err.Error()
		} else {
			m.status = "synced with host"
		}
		m.matches = make(map[entity.NodeID][]tabtree.Match)
		m.refresh()

	case "/":
		m.mode = modeSearch
		m.search.SetValue("")
		m.search.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m InspectorModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		m.matches = make(map[entity.NodeID][]tabtree.Match)
		m.status = ""
		return m, nil
	case "enter":
		results := m.engine.Search(m.search.Value())
		expanded := m.engine.ExpandMatchedNodeParents(m.ctx, results)
		m.mode = modeBrowse
		m.search.Blur()
		m.status = fmt.Sprintf("%d matches, %d branches expanded", len(results), len(expanded))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	m.matches = make(map[entity.NodeID][]tabtree.Match)
	results := m.engine.Search(m.search.Value())
	for _, result := range results {
		m.matches[result.NodeID] = result.Matches
	}
	if m.search.Value() != "" {
		m.status = fmt.Sprintf("%d matches", len(results))
	}
	return m, cmd
}

func (m InspectorModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBrowse
		m.closeSubtree(m.confirmTarget)
	case "n", "N", "esc":
		m.mode = modeBrowse
		m.engine.CancelClose()
		m.status = "close cancelled"
	}
	return m, nil
}

func (m *InspectorModel) closeSubtree(id entity.NodeID) {
	result, err := m.engine.CloseTabWithChildren(m.ctx, id)
	switch {
	case err != nil:
		m.status = err.Error()
	case !result.OK():
		m.status = fmt.Sprintf("closed %d tabs, %d host errors", len(result.ClosedIDs), len(result.Errors))
	default:
		m.status = fmt.Sprintf("closed %d tabs, u to undo", len(result.ClosedIDs))
		if result.SkippedProtected > 0 {
			m.status += fmt.Sprintf(" (%d pinned kept)", result.SkippedProtected)
		}
	}
	m.refresh()
}

func (m *InspectorModel) completeDrop(target entity.NodeID) {
	if target != "" && !m.engine.ValidateDrop(m.dragged, target) {
		m.status = "invalid drop target"
		return
	}
	result, err := m.engine.CompleteDrop(m.ctx, m.dragged, target)
	switch {
	case err != nil:
		m.status = err.Error()
	case !result.OK():
		m.status = fmt.Sprintf("moved with %d host errors, U to undo", len(result.HostErrors))
	default:
		m.status = "moved, U to undo"
	}
	m.dragged = ""
	m.refresh()
}

// View implements tea.Model.
func (m InspectorModel) View() string {
	var b strings.Builder

	windows := m.engine.WindowIDs()
	b.WriteString(m.theme.Title.Render(fmt.Sprintf("Arbor: %d tabs in %d windows", len(m.engine.Flatten()), len(windows))))
	b.WriteString("\n\n")

	lastWindow := -1
	for i, r := range m.rows {
		if len(windows) > 1 && r.node.WindowID != lastWindow {
			lastWindow = r.node.WindowID
			b.WriteString(m.theme.Badge.Render(fmt.Sprintf("window %d", lastWindow)))
			b.WriteString("\n")
		}
		b.WriteString(m.theme.RenderNodeLine(r.node, r.hasChildren, i == m.cursor, m.matches[r.node.ID]))
		b.WriteString("\n")
		if i == m.cursor {
			b.WriteString(m.theme.RenderDetail(r.node))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch m.mode {
	case modeSearch:
		b.WriteString(m.search.View())
		b.WriteString("\n")
	case modeConfirm:
		b.WriteString(m.theme.WarnStyle.Render(fmt.Sprintf("Close %d tabs? (y/n)", m.confirmCount)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.theme.StatusBar.Render(m.status))
		b.WriteString("\n")
	}
	if drifted := m.engine.DriftedNodes(); len(drifted) > 0 {
		b.WriteString(m.theme.WarnStyle.Render(fmt.Sprintf("%d nodes drifted from host, r to resync", len(drifted))))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Help.Render("j/k move · space fold · enter activate · m/p/P move · d close · u/U undo · / search · r sync · q quit"))
	return b.String()
}
