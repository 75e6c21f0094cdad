package tabtree

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/domain/entity"
)

// MatchField names the node field a search match landed on.
type MatchField string

const (
	MatchTitle MatchField = "title"
	MatchURL   MatchField = "url"
)

// Match describes one field hit: half-open byte offsets into the original
// field value plus the matched substring. End-Start can differ from the query
// length when lower-casing changes a rune's encoded width.
type Match struct {
	Field MatchField
	Start int
	End   int
	Text  string
}

// SearchResult is one matched node with its accumulated score. A node that
// matches on both title and url carries both matches and both weights.
type SearchResult struct {
	NodeID  entity.NodeID
	Matches []Match
	Score   int
}

// SearchEngine ranks nodes by case-insensitive substring match against title
// and url, weighted per field.
type SearchEngine struct {
	repo *Repository
	cfg  config.EngineConfig
}

// NewSearchEngine creates a search engine with the given weights.
func NewSearchEngine(repo *Repository, cfg config.EngineConfig) *SearchEngine {
	return &SearchEngine{repo: repo, cfg: cfg}
}

// Search returns matched nodes sorted by descending score; ties keep
// discovery (Flatten) order. An empty query yields zero results, never "all
// nodes".
func (s *SearchEngine) Search(query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var results []SearchResult
	for _, node := range s.repo.Flatten() {
		var matches []Match
		score := 0

		if m, ok := matchField(MatchTitle, node.Title, needle); ok {
			matches = append(matches, m)
			score += s.cfg.TitleWeight
		}
		if m, ok := matchField(MatchURL, node.URL, needle); ok {
			matches = append(matches, m)
			score += s.cfg.URLWeight
		}

		if len(matches) > 0 {
			results = append(results, SearchResult{NodeID: node.ID, Matches: matches, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// matchField builds the Match for needle's first occurrence in value.
func matchField(field MatchField, value, needle string) (Match, bool) {
	start, end, ok := foldIndex(value, needle)
	if !ok {
		return Match{}, false
	}
	return Match{Field: field, Start: start, End: end, Text: value[start:end]}, true
}

// foldIndex locates the first case-insensitive occurrence of needle (already
// lower-cased) in s and returns byte offsets into s itself. Lower-casing can
// change a rune's encoded length, so offsets into a lowered copy of s are not
// safe to slice the original with.
func foldIndex(s, needle string) (start, end int, ok bool) {
	if needle == "" {
		return 0, 0, false
	}
	for i := range s {
		rem := needle
		pos := i
		for rem != "" && pos < len(s) {
			r, size := utf8.DecodeRuneInString(s[pos:])
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], unicode.ToLower(r))
			if !strings.HasPrefix(rem, string(buf[:n])) {
				break
			}
			rem = rem[n:]
			pos += size
		}
		if rem == "" {
			return i, pos, true
		}
	}
	return 0, 0, false
}

// ExpandMatchedNodeParents walks every matched node's ancestor chain to the
// root and marks each ancestor not-collapsed, so every match is visible. It
// returns the expanded ancestor ids (deduplicated, in encounter order). The
// operation is idempotent and order-independent.
func (s *SearchEngine) ExpandMatchedNodeParents(results []SearchResult) []entity.NodeID {
	seen := make(map[entity.NodeID]struct{})
	var expanded []entity.NodeID

	for _, result := range results {
		chain, corrupt := s.repo.Ancestors(result.NodeID)
		if corrupt {
			continue
		}
		for _, ancestorID := range chain {
			if _, dup := seen[ancestorID]; dup {
				continue
			}
			seen[ancestorID] = struct{}{}
			if ancestor, ok := s.repo.FindByID(ancestorID); ok {
				ancestor.IsCollapsed = false
				expanded = append(expanded, ancestorID)
			}
		}
	}
	return expanded
}
