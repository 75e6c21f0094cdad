package styles

import (
	"strings"

	"github.com/arbor-browser/arbor/internal/app/tabtree"
	"github.com/arbor-browser/arbor/internal/domain/entity"
)

const indentStep = "  "

// RenderNodeLine renders one row of the forest: indentation by depth, a
// collapse marker for branch nodes, state markers, and the title with any
// search matches highlighted.
func (t *Theme) RenderNodeLine(node *entity.TreeNode, hasChildren, selected bool, matches []tabtree.Match) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(indentStep, node.Depth))

	switch {
	case hasChildren && node.IsCollapsed:
		b.WriteString("▸ ")
	case hasChildren:
		b.WriteString("▾ ")
	default:
		b.WriteString("  ")
	}

	if node.IsActive {
		b.WriteString(t.ActiveTab.Render("●") + " ")
	}
	if node.IsPinned {
		b.WriteString(t.Pinned.Render("✦") + " ")
	}
	if node.IsAudioPlaying {
		b.WriteString(t.Subtle.Render("♪") + " ")
	}

	title := node.Title
	if title == "" {
		title = node.URL
	}
	if selected {
		b.WriteString(t.Selected.Render(title))
	} else {
		b.WriteString(t.renderWithMatches(title, matches))
	}
	return b.String()
}

// renderWithMatches highlights title match ranges; url matches are shown by
// the detail line, not inline.
func (t *Theme) renderWithMatches(title string, matches []tabtree.Match) string {
	var ranges []tabtree.Match
	for _, m := range matches {
		if m.Field == tabtree.MatchTitle && m.End <= len(title) {
			ranges = append(ranges, m)
		}
	}
	if len(ranges) == 0 {
		return t.Normal.Render(title)
	}

	var b strings.Builder
	cursor := 0
	for _, m := range ranges {
		if m.Start < cursor {
			continue
		}
		b.WriteString(t.Normal.Render(title[cursor:m.Start]))
		b.WriteString(t.MatchText.Render(title[m.Start:m.End]))
		cursor = m.End
	}
	b.WriteString(t.Normal.Render(title[cursor:]))
	return b.String()
}

// RenderDetail renders the url line shown under the selected node.
func (t *Theme) RenderDetail(node *entity.TreeNode) string {
	return t.Subtle.Render(strings.Repeat(indentStep, node.Depth+1) + node.URL)
}
