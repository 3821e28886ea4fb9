// Package nav maps tabs to URLs and scroll positions to tabs.
package nav

import (
	"strings"
	"unicode"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// Slugify converts a tab title to its URL slug: lower-cased, trimmed,
// stripped of everything except ASCII word characters, whitespace and
// hyphens, with whitespace and hyphen runs collapsed to a single hyphen and
// no hyphen at either end. Slugify(Slugify(x)) == Slugify(x).
func Slugify(title string) string {
	s := strings.TrimFunc(strings.ToLower(title), isSpace)

	var b strings.Builder
	b.Grow(len(s))
	hyphen := false
	for _, r := range s {
		switch {
		case isWord(r):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		case r == '-' || isSpace(r):
			hyphen = true
		}
	}
	return b.String()
}

func isWord(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// TabMatch is a tab found by slug together with its position.
type TabMatch struct {
	Index int
	Tab   doctree.Tab
}

// FindTabBySlug returns the first tab whose title slugifies to slug, or nil.
func FindTabBySlug(tabs []doctree.Tab, slug string) *TabMatch {
	for i, tab := range tabs {
		if Slugify(tab.Title) == slug {
			return &TabMatch{Index: i, Tab: tab}
		}
	}
	return nil
}

// Slugs returns the slug of every tab in order.
func Slugs(tabs []doctree.Tab) []string {
	out := make([]string, len(tabs))
	for i, tab := range tabs {
		out[i] = Slugify(tab.Title)
	}
	return out
}

// DuplicateSlugs returns slugs shared by more than one tab. Only the first
// of those tabs is reachable by URL.
func DuplicateSlugs(tabs []doctree.Tab) []string {
	seen := make(map[string]int, len(tabs))
	var dups []string
	for _, s := range Slugs(tabs) {
		seen[s]++
		if seen[s] == 2 {
			dups = append(dups, s)
		}
	}
	return dups
}
