package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// softBreak is the vertical tab Google Docs uses for shift+enter line breaks.
const softBreak = "\v"

var headingAtoms = [...]atom.Atom{atom.H1, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// Renderer serialises tabs to sanitised HTML and Markdown. It is safe for
// concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
	md     goldmark.Markdown
	conv   *converter.Converter
}

// New builds a Renderer with the site's sanitising policy.
func New() *Renderer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 _-]+$`)).Globally()
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[A-Za-z0-9._-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowStyles("font-size", "font-family", "font-weight").OnElements("span")
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		policy: p,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// TabHTML renders a tab's rich content, falling back to its plain text content.
// It returns "" when the tab has neither.
func (r *Renderer) TabHTML(tab doctree.Tab) (template.HTML, error) {
	switch {
	case len(tab.RichContent) > 0:
		return r.HTML(Render(tab.RichContent))
	case strings.TrimSpace(tab.Content) != "":
		return r.PlainHTML(tab.Content)
	}
	return "", nil
}

// HTML serialises display nodes and sanitises the result.
func (r *Renderer) HTML(nodes []Node) (template.HTML, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, blockNode(n)); err != nil {
			return "", fmt.Errorf("render node: %w", err)
		}
		buf.WriteByte('\n')
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// PlainHTML renders untyped text content: every non-blank line becomes a
// paragraph and is interpreted as Markdown.
func (r *Renderer) PlainHTML(content string) (template.HTML, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(strings.Join(lines, "\n\n")), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// Markdown exports a tab as Markdown, headed by its title.
func (r *Renderer) Markdown(tab doctree.Tab) (string, error) {
	body, err := r.TabHTML(tab)
	if err != nil {
		return "", err
	}
	md, err := r.conv.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	title := tab.Title
	if t := tab.FrontMatter.Title(); t != "" {
		title = t
	}
	return "# " + title + "\n\n" + strings.TrimSpace(md) + "\n", nil
}

func blockNode(n Node) *html.Node {
	switch n.Kind {
	case KindRule:
		return element(atom.Hr, "class", "rule")
	case KindSectionBreak:
		return element(atom.Div, "class", "section-break")
	}

	tag := atom.P
	classes := []string{n.Kind.String()}
	switch n.Kind {
	case KindHeading:
		if n.Level >= 0 && n.Level < len(headingAtoms) {
			tag = headingAtoms[n.Level]
		}
		if n.Level > 0 {
			classes = append(classes, "heading-"+strconv.Itoa(n.Level))
		}
	case KindSubtitle:
		tag = atom.H2
	case KindParagraph:
		if n.Excerpt {
			tag = atom.Blockquote
		}
	}
	if n.Excerpt {
		classes = append(classes, "excerpt")
	}
	if n.Align != "" {
		classes = append(classes, "align-"+n.Align)
	}

	el := element(tag, "class", strings.Join(classes, " "))
	if n.Kind == KindHeading && n.HeadingID != "" {
		el.Attr = append(el.Attr, html.Attribute{Key: "id", Val: n.HeadingID})
	}
	for _, s := range n.Spans {
		for _, c := range spanNodes(s) {
			el.AppendChild(c)
		}
	}
	return el
}

// spanNodes builds the markup for one span, innermost formatting first.
func spanNodes(s Span) []*html.Node {
	var kids []*html.Node
	for i, part := range strings.Split(s.Text, softBreak) {
		if i > 0 {
			kids = append(kids, element(atom.Br))
		}
		if part != "" {
			kids = append(kids, &html.Node{Type: html.TextNode, Data: part})
		}
	}

	wrap := func(a atom.Atom, attrs ...string) {
		w := element(a, attrs...)
		for _, k := range kids {
			w.AppendChild(k)
		}
		kids = []*html.Node{w}
	}
	if s.Strikethrough {
		wrap(atom.S)
	}
	if s.Underline {
		wrap(atom.U)
	}
	if s.Italic {
		wrap(atom.Em)
	}
	if s.Bold {
		wrap(atom.Strong)
	}
	if style := inlineStyle(s); style != "" {
		wrap(atom.Span, "style", style)
	}
	if s.Href != "" {
		wrap(atom.A, "href", s.Href)
	}
	return kids
}

func inlineStyle(s Span) string {
	var decls []string
	if s.FontSizePt > 0 {
		decls = append(decls, "font-size: "+strconv.FormatFloat(s.FontSizePt, 'f', -1, 64)+"pt")
	}
	if s.FontFamily != "" {
		decls = append(decls, "font-family: "+s.FontFamily)
	}
	if s.FontWeight > 0 {
		decls = append(decls, "font-weight: "+strconv.FormatInt(s.FontWeight, 10))
	}
	return strings.Join(decls, "; ")
}

// element creates an element node; attrs are key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}
