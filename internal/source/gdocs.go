package source

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/dgallion1/tabsite/internal/doctree"
)

const untitled = "Untitled Document"

// GoogleDocs reads a document through the Docs API with service account
// credentials.
type GoogleDocs struct {
	docID string
	svc   *docs.Service
}

// NewGoogleDocs builds a client for docID. credentialsJSON is the service
// account key; extra options are appended after it (endpoint overrides,
// custom HTTP clients).
func NewGoogleDocs(ctx context.Context, docID string, credentialsJSON []byte, opts ...option.ClientOption) (*GoogleDocs, error) {
	var all []option.ClientOption
	if len(credentialsJSON) > 0 {
		all = append(all,
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(docs.DocumentsReadonlyScope),
		)
	}
	all = append(all, opts...)

	svc, err := docs.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &GoogleDocs{docID: docID, svc: svc}, nil
}

func (g *GoogleDocs) Fetch(ctx context.Context) (*doctree.Document, error) {
	doc, err := g.svc.Documents.Get(g.docID).IncludeTabsContent(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrFetch, g.docID, err)
	}
	return Convert(doc), nil
}

// Convert maps a Docs API response onto the document model. Child tabs
// are flattened depth-first after their parent. Native tabs are kept as
// they are; only a legacy body without tabs is split by the header rule.
func Convert(doc *docs.Document) *doctree.Document {
	out := &doctree.Document{Title: doc.Title}
	if out.Title == "" {
		out.Title = untitled
	}

	switch {
	case len(doc.Tabs) > 0:
		out.Tabs = flattenTabs(doc.Tabs, nil)
	case doc.Body != nil:
		out.Tabs = partition(out.Title, convertElements(doc.Body.Content))
	}
	out.Content = joinContent(out.Tabs)
	return out
}

func flattenTabs(in []*docs.Tab, out []doctree.Tab) []doctree.Tab {
	for _, t := range in {
		if t == nil {
			continue
		}
		tab := doctree.Tab{}
		if t.TabProperties != nil {
			tab.Title = t.TabProperties.Title
		}
		if t.DocumentTab != nil && t.DocumentTab.Body != nil {
			tab.RichContent = convertElements(t.DocumentTab.Body.Content)
			tab.Content = tab.RichContent.Text()
		}
		out = append(out, tab)
		out = flattenTabs(t.ChildTabs, out)
	}
	return out
}

func joinContent(tabs []doctree.Tab) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// convertElements keeps paragraphs and section breaks; tables and tables
// of contents are not rendered.
func convertElements(in []*docs.StructuralElement) doctree.Elements {
	out := make(doctree.Elements, 0, len(in))
	for _, se := range in {
		if se == nil {
			continue
		}
		el := doctree.Element{StartIndex: se.StartIndex, EndIndex: se.EndIndex}
		switch {
		case se.Paragraph != nil:
			el.Paragraph = convertParagraph(se.Paragraph)
		case se.SectionBreak != nil:
			el.SectionBreak = &doctree.SectionBreak{}
		default:
			continue
		}
		out = append(out, el)
	}
	return out
}

func convertParagraph(p *docs.Paragraph) *doctree.Paragraph {
	out := &doctree.Paragraph{Elements: make([]doctree.ParagraphElement, 0, len(p.Elements))}
	for _, pe := range p.Elements {
		if pe == nil {
			continue
		}
		switch {
		case pe.TextRun != nil:
			out.Elements = append(out.Elements, doctree.ParagraphElement{TextRun: &doctree.TextRun{
				Content:   pe.TextRun.Content,
				TextStyle: convertTextStyle(pe.TextRun.TextStyle),
			}})
		case pe.HorizontalRule != nil:
			out.Elements = append(out.Elements, doctree.ParagraphElement{HorizontalRule: &doctree.HorizontalRule{
				TextStyle: convertTextStyle(pe.HorizontalRule.TextStyle),
			}})
		}
	}
	if ps := p.ParagraphStyle; ps != nil {
		out.ParagraphStyle = &doctree.ParagraphStyle{
			NamedStyleType: ps.NamedStyleType,
			HeadingID:      ps.HeadingId,
			Alignment:      ps.Alignment,
			Direction:      ps.Direction,
		}
	}
	return out
}

func convertTextStyle(ts *docs.TextStyle) *doctree.TextStyle {
	if ts == nil {
		return nil
	}
	out := &doctree.TextStyle{
		Bold:          ts.Bold,
		Italic:        ts.Italic,
		Underline:     ts.Underline,
		Strikethrough: ts.Strikethrough,
	}
	if l := ts.Link; l != nil {
		out.Link = &doctree.Link{URL: l.Url, HeadingID: l.HeadingId, BookmarkID: l.BookmarkId, TabID: l.TabId}
	}
	if fs := ts.FontSize; fs != nil {
		out.FontSize = &doctree.Dimension{Magnitude: fs.Magnitude, Unit: fs.Unit}
	}
	if wf := ts.WeightedFontFamily; wf != nil {
		out.WeightedFontFamily = &doctree.WeightedFontFamily{FontFamily: wf.FontFamily, Weight: wf.Weight}
	}
	return out
}
