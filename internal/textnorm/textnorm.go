// Package textnorm folds text for keyword comparison.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold returns s normalized to NFKC and lower-cased.
//
// NFKC collapses full-width Latin letters, digits and spaces to their
// ASCII forms, so "ＳＥＯ対策" and "SEO対策" compare equal after folding.
func Fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Contains reports whether substr occurs in s after both are folded.
func Contains(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
