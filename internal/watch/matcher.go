package watch

import (
	"strings"

	"github.com/ymgch/visasq-watch/internal/textnorm"
)

// Seen answers whether an item ID has already been notified.
type Seen interface {
	Contains(id string) bool
}

// MatchItems filters items down to not-yet-seen entries that contain at
// least one keyword. A nil seen skips the already-notified filter.
//
// Matching is substring containment over the folded concatenation of
// title and description. A keyword inside an unrelated longer word still
// counts; the site's vocabulary makes that acceptable in practice.
// MatchedKeywords preserves the declaration order of keywords, and item
// order follows the input.
func MatchItems(items []Item, seen Seen, keywords []string) []Match {
	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = textnorm.Fold(kw)
	}

	matches := make([]Match, 0, len(items))
	for _, it := range items {
		if seen != nil && seen.Contains(it.ID) {
			continue
		}
		haystack := textnorm.Fold(it.Title + " " + it.Description)
		var hits []string
		for i, kw := range keywords {
			if strings.Contains(haystack, folded[i]) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		matches = append(matches, Match{Item: it, MatchedKeywords: hits})
	}
	return matches
}
