// Package render projects a rich content tree onto display nodes and
// serialises them to sanitised HTML.
package render

import (
	"strings"
	"unicode"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// Kind classifies a rendered node.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindSubtitle
	KindRule
	KindSectionBreak
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindSubtitle:
		return "subtitle"
	case KindRule:
		return "rule"
	case KindSectionBreak:
		return "section-break"
	default:
		return "paragraph"
	}
}

// Span is one styled piece of text inside a block.
type Span struct {
	Text          string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Href          string
	FontSizePt    float64
	FontFamily    string
	FontWeight    int64
}

// Node is one display block.
type Node struct {
	Kind Kind
	// Level is 1-6 for HEADING_n styles and 0 for a generic heading.
	Level     int
	Align     string
	Excerpt   bool
	HeadingID string
	Spans     []Span
}

// Render walks elems once, top to bottom, and returns the display nodes.
// Empty paragraphs are dropped; a paragraph holding only rules yields bare
// rule nodes; rules that share a paragraph with text follow it.
func Render(elems doctree.Elements) []Node {
	var out []Node
	for _, el := range elems {
		switch {
		case el.Paragraph != nil:
			out = append(out, paragraph(el.Paragraph)...)
		case el.SectionBreak != nil:
			out = append(out, Node{Kind: KindSectionBreak})
		}
	}
	return out
}

func paragraph(p *doctree.Paragraph) []Node {
	var spans []Span
	rules := 0
	for _, pe := range p.Elements {
		switch {
		case pe.TextRun != nil:
			if s, ok := span(pe.TextRun); ok {
				spans = append(spans, s)
			}
		case pe.HorizontalRule != nil:
			rules++
		}
	}

	n := Node{Kind: KindParagraph}
	if len(spans) > 0 && strings.HasPrefix(strings.TrimSpace(spans[0].Text), ">") {
		n.Excerpt = true
		spans = stripExcerptMarker(spans)
	}
	if len(spans) == 0 && rules == 0 {
		return nil
	}

	out := make([]Node, 0, 1+rules)
	if len(spans) > 0 {
		classify(&n, p.ParagraphStyle)
		n.Spans = spans
		out = append(out, n)
	}
	for range rules {
		out = append(out, Node{Kind: KindRule})
	}
	return out
}

func classify(n *Node, style *doctree.ParagraphStyle) {
	if style == nil {
		return
	}
	n.Align = strings.ToLower(style.Alignment)
	n.HeadingID = style.HeadingID

	named := style.NamedStyleType
	switch {
	case strings.HasPrefix(named, "HEADING_"):
		n.Kind = KindHeading
		if lvl := named[len("HEADING_"):]; len(lvl) == 1 && lvl[0] >= '1' && lvl[0] <= '6' {
			n.Level = int(lvl[0] - '0')
		}
	case named == doctree.StyleTitle || strings.Contains(named, "HEADING"):
		n.Kind = KindHeading
	case named == doctree.StyleSubtitle:
		n.Kind = KindSubtitle
	case style.HeadingID != "":
		n.Kind = KindHeading
	}
}

// span converts a run; runs with no text once the paragraph newline is
// removed are invisible.
func span(r *doctree.TextRun) (Span, bool) {
	text := strings.TrimSuffix(r.Content, "\n")
	if text == "" {
		return Span{}, false
	}
	s := Span{Text: text}
	if st := r.TextStyle; st != nil {
		s.Bold = st.Bold
		s.Italic = st.Italic
		s.Underline = st.Underline
		s.Strikethrough = st.Strikethrough
		if st.Link != nil {
			switch {
			case st.Link.URL != "":
				s.Href = st.Link.URL
			case st.Link.HeadingID != "":
				s.Href = "#" + st.Link.HeadingID
			}
		}
		if st.FontSize != nil && st.FontSize.Magnitude > 0 {
			s.FontSizePt = st.FontSize.Magnitude
		}
		if st.WeightedFontFamily != nil {
			s.FontFamily = st.WeightedFontFamily.FontFamily
			s.FontWeight = st.WeightedFontFamily.Weight
		}
	}
	return s, true
}

// stripExcerptMarker removes the leading ">" (and one following space)
// from the first span, dropping the span if nothing is left.
func stripExcerptMarker(spans []Span) []Span {
	first := spans[0]
	text := strings.TrimLeftFunc(first.Text, unicode.IsSpace)
	text = strings.TrimPrefix(text, ">")
	text = strings.TrimPrefix(text, " ")

	out := make([]Span, 0, len(spans))
	if text != "" {
		first.Text = text
		out = append(out, first)
	}
	return append(out, spans[1:]...)
}
