// Package doctree holds the document model shared by the fetch, parse and
// render stages. JSON field names follow the Google Docs API shape so the
// /api/document payload can be consumed by the same clients as the upstream.
package doctree

import "strings"

// Document is one fetched Google Doc split into published tabs.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tabs    []Tab  `json:"tabs"`
}

// Tab is a named section of the document.
type Tab struct {
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	RichContent Elements    `json:"richContent,omitempty"`
	FrontMatter FrontMatter `json:"frontMatter,omitempty"`
}

// Elements is an ordered rich content tree (the body of one tab).
type Elements []Element

// Element is a structural element. Exactly one of Paragraph or SectionBreak
// is set for supported content.
type Element struct {
	StartIndex   int64         `json:"startIndex,omitempty"`
	EndIndex     int64         `json:"endIndex,omitempty"`
	Paragraph    *Paragraph    `json:"paragraph,omitempty"`
	SectionBreak *SectionBreak `json:"sectionBreak,omitempty"`
}

// SectionBreak marks a section boundary inside a tab.
type SectionBreak struct{}

// Paragraph is a styled sequence of runs and rules.
type Paragraph struct {
	Elements       []ParagraphElement `json:"elements"`
	ParagraphStyle *ParagraphStyle    `json:"paragraphStyle,omitempty"`
}

// ParagraphElement is either a text run or a horizontal rule.
type ParagraphElement struct {
	TextRun        *TextRun        `json:"textRun,omitempty"`
	HorizontalRule *HorizontalRule `json:"horizontalRule,omitempty"`
}

// TextRun is a span of text sharing one style.
type TextRun struct {
	Content   string     `json:"content,omitempty"`
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// HorizontalRule is a divider inside a paragraph.
type HorizontalRule struct {
	TextStyle *TextStyle `json:"textStyle,omitempty"`
}

// TextStyle carries the run-level formatting flags we render.
type TextStyle struct {
	Bold               bool                `json:"bold,omitempty"`
	Italic             bool                `json:"italic,omitempty"`
	Underline          bool                `json:"underline,omitempty"`
	Strikethrough      bool                `json:"strikethrough,omitempty"`
	Link               *Link               `json:"link,omitempty"`
	FontSize           *Dimension          `json:"fontSize,omitempty"`
	WeightedFontFamily *WeightedFontFamily `json:"weightedFontFamily,omitempty"`
}

// Link is a hyperlink target. URL and heading links are rendered as anchors.
type Link struct {
	URL        string `json:"url,omitempty"`
	HeadingID  string `json:"headingId,omitempty"`
	BookmarkID string `json:"bookmarkId,omitempty"`
	TabID      string `json:"tabId,omitempty"`
}

// Dimension is a magnitude with a unit, e.g. 11pt.
type Dimension struct {
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit"`
}

// WeightedFontFamily is a font family with a numeric weight.
type WeightedFontFamily struct {
	FontFamily string `json:"fontFamily"`
	Weight     int64  `json:"weight"`
}

// ParagraphStyle holds the paragraph-level style fields used for rendering.
type ParagraphStyle struct {
	NamedStyleType string `json:"namedStyleType,omitempty"`
	HeadingID      string `json:"headingId,omitempty"`
	Alignment      string `json:"alignment,omitempty"`
	Direction      string `json:"direction,omitempty"`
}

// Named paragraph styles used by Google Docs.
const (
	StyleNormal   = "NORMAL_TEXT"
	StyleTitle    = "TITLE"
	StyleSubtitle = "SUBTITLE"
	StyleHeading1 = "HEADING_1"
)

// NamedStyle returns the paragraph's named style type, or "".
func (p *Paragraph) NamedStyle() string {
	if p == nil || p.ParagraphStyle == nil {
		return ""
	}
	return p.ParagraphStyle.NamedStyleType
}

// Text concatenates the content of every text run in the paragraph.
func (p *Paragraph) Text() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, pe := range p.Elements {
		if pe.TextRun != nil {
			b.WriteString(pe.TextRun.Content)
		}
	}
	return b.String()
}

// Text returns the plain text of the tree: each paragraph's runs
// concatenated, paragraphs joined with newlines, surrounding space trimmed.
func (e Elements) Text() string {
	lines := make([]string, 0, len(e))
	for _, el := range e {
		if el.Paragraph == nil {
			continue
		}
		lines = append(lines, strings.TrimRight(el.Paragraph.Text(), "\n"))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
