package tabtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-browser/arbor/internal/domain/entity"
)

func TestSearchScoresBothFields(t *testing.T) {
	e, h := newTestEngine(t)
	id, _ := createTab(t, e, h, 1, "https://github.com", "GitHub Docs", nil)

	results := e.Search("github")
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, id, result.NodeID)
	assert.Equal(t, 15, result.Score) // title 10 + url 5

	require.Len(t, result.Matches, 2)
	title, url := result.Matches[0], result.Matches[1]
	assert.Equal(t, MatchTitle, title.Field)
	assert.Equal(t, 0, title.Start)
	assert.Equal(t, 6, title.End)
	assert.Equal(t, "GitHub", title.Text)
	assert.Equal(t, MatchURL, url.Field)
	assert.Equal(t, 8, url.Start)
	assert.Equal(t, 14, url.End)
	assert.Equal(t, "github", url.Text)
}

func TestSearchEmptyQuery(t *testing.T) {
	e, h := newTestEngine(t)
	createTab(t, e, h, 1, "https://a.example", "A", nil)

	assert.Nil(t, e.Search(""))
	assert.Nil(t, e.Search("   "))
	assert.Nil(t, e.Search("no such tab anywhere"))
}

func TestSearchRankingAndTies(t *testing.T) {
	e, h := newTestEngine(t)
	urlOnly, _ := createTab(t, e, h, 1, "https://rust-lang.org", "Home", nil)
	titleFirst, _ := createTab(t, e, h, 1, "https://example.com/1", "Learning Rust", nil)
	titleSecond, _ := createTab(t, e, h, 1, "https://example.com/2", "Rust by Example", nil)

	results := e.Search("rust")
	require.Len(t, results, 3)

	// Title matches outrank the url-only match; equal scores keep tree order.
	assert.Equal(t, titleFirst, results[0].NodeID)
	assert.Equal(t, titleSecond, results[1].NodeID)
	assert.Equal(t, urlOnly, results[2].NodeID)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[0].Score, results[2].Score)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	e, h := newTestEngine(t)
	id, _ := createTab(t, e, h, 1, "https://example.com", "WIKIPEDIA", nil)

	results := e.Search("wikipedia")
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].NodeID)
	assert.Equal(t, "WIKIPEDIA", results[0].Matches[0].Text)
}

func TestSearchUnicodeTitleOffsets(t *testing.T) {
	e, h := newTestEngine(t)
	// U+023A grows from 2 to 3 bytes when lowered, U+0130 shrinks from 2 to 1.
	wide, _ := createTab(t, e, h, 1, "https://a.example", "Ⱥz", nil)
	dotted, _ := createTab(t, e, h, 1, "https://b.example", "İİİİ needle", nil)

	results := e.Search("z")
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	match := results[0].Matches[0]
	assert.Equal(t, wide, results[0].NodeID)
	assert.Equal(t, MatchTitle, match.Field)
	assert.Equal(t, 2, match.Start)
	assert.Equal(t, 3, match.End)
	assert.Equal(t, "z", match.Text)

	results = e.Search("needle")
	require.Len(t, results, 1)
	match = results[0].Matches[0]
	assert.Equal(t, dotted, results[0].NodeID)
	assert.Equal(t, 9, match.Start)
	assert.Equal(t, 15, match.End)
	assert.Equal(t, "needle", match.Text)
}

func TestSearchUnicodeQueryWiderThanMatch(t *testing.T) {
	e, h := newTestEngine(t)
	id, _ := createTab(t, e, h, 1, "https://a.example", "Ⱥz", nil)

	// "ⱥz" lowers to 4 bytes but the matched original "Ⱥz" is only 3.
	results := e.Search("ⱥz")
	require.Len(t, results, 1)
	match := results[0].Matches[0]
	assert.Equal(t, id, results[0].NodeID)
	assert.Equal(t, 0, match.Start)
	assert.Equal(t, 3, match.End)
	assert.Equal(t, "Ⱥz", match.Text)
}

func TestExpandMatchedNodeParents(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()

	a, extA := createTab(t, e, h, 1, "https://a.example", "A", nil)
	b, extB := createTab(t, e, h, 1, "https://b.example", "B", &extA)
	c, _ := createTab(t, e, h, 1, "https://c.example", "Needle", &extB)
	mustFind(t, e, a).IsCollapsed = true
	mustFind(t, e, b).IsCollapsed = true
	mustFind(t, e, c).IsCollapsed = true

	results := e.Search("needle")
	require.Len(t, results, 1)

	expanded := e.ExpandMatchedNodeParents(ctx, results)
	assert.Equal(t, []entity.NodeID{b, a}, expanded)

	// Ancestors open, the matched node's own collapse state is untouched.
	assert.False(t, mustFind(t, e, a).IsCollapsed)
	assert.False(t, mustFind(t, e, b).IsCollapsed)
	assert.True(t, mustFind(t, e, c).IsCollapsed)

	// Idempotent.
	e.ExpandMatchedNodeParents(ctx, results)
	assert.False(t, mustFind(t, e, a).IsCollapsed)
}

func TestExpandDeduplicatesSharedAncestors(t *testing.T) {
	e, h := newTestEngine(t)
	ctx := context.Background()

	root, extRoot := createTab(t, e, h, 1, "https://root.example", "Root", nil)
	createTab(t, e, h, 1, "https://x.example", "match one", &extRoot)
	createTab(t, e, h, 1, "https://y.example", "match two", &extRoot)
	mustFind(t, e, root).IsCollapsed = true

	results := e.Search("match")
	require.Len(t, results, 2)

	expanded := e.ExpandMatchedNodeParents(ctx, results)
	assert.Equal(t, []entity.NodeID{root}, expanded)
}
