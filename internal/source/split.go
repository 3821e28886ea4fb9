package source

import (
	"regexp"
	"strings"

	"github.com/dgallion1/tabsite/internal/doctree"
)

var (
	allCapsRe  = regexp.MustCompile(`^[A-Z\s]+$`)
	numberedRe = regexp.MustCompile(`^\d+\.\s`)
	keywordRe  = regexp.MustCompile(`(?i)^(TAB|SECTION|CHAPTER|PART)\s`)
)

// IsTabHeader reports whether a paragraph starts a new tab in a document
// that has no native tabs.
func IsTabHeader(p *doctree.Paragraph) bool {
	text := strings.TrimSpace(p.Text())
	if text == "" {
		return false
	}
	switch p.NamedStyle() {
	case doctree.StyleHeading1, doctree.StyleTitle:
		return true
	}
	return allCapsRe.MatchString(text) || numberedRe.MatchString(text) || keywordRe.MatchString(text)
}

// SplitByHeaders partitions a single body into tabs at each header
// paragraph. The header text becomes the tab title; content before the
// first header is discarded.
func SplitByHeaders(elems doctree.Elements) []doctree.Tab {
	var tabs []doctree.Tab
	cur := -1
	for _, el := range elems {
		if el.Paragraph != nil && IsTabHeader(el.Paragraph) {
			tabs = append(tabs, doctree.Tab{Title: strings.TrimSpace(el.Paragraph.Text())})
			cur = len(tabs) - 1
			continue
		}
		if cur >= 0 {
			tabs[cur].RichContent = append(tabs[cur].RichContent, el)
		}
	}
	for i := range tabs {
		tabs[i].Content = tabs[i].RichContent.Text()
	}
	return tabs
}

// partition applies the header rule to a body that came without native
// tabs. A body with no headers becomes one tab named title.
func partition(title string, body doctree.Elements) []doctree.Tab {
	if split := SplitByHeaders(body); len(split) > 0 {
		return split
	}
	return []doctree.Tab{{Title: title, RichContent: body, Content: body.Text()}}
}
