package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// DOCX reads a Word export of the document. Word has no tabs, so the body
// is always partitioned with the header rule.
type DOCX struct {
	Path string
}

func (d *DOCX) Fetch(ctx context.Context) (*doctree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %w", ErrFetch, err)
	}
	data, err = rewriteEntry(data, docxBody, func(b []byte) []byte {
		return offToggleRe.ReplaceAll(b, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read docx: %w", ErrFetch, err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %w", ErrFetch, err)
	}

	title := strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
	var body doctree.Elements
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			body = append(body, doctree.Element{Paragraph: docxParagraph(para)})
		}
	}

	out := &doctree.Document{Title: title}
	out.Tabs = partition(title, body)
	out.Content = joinContent(out.Tabs)
	return out, nil
}

const docxBody = "word/document.xml"

// offToggleRe matches bold and italic switched off with w:val. go-docx
// records only that the element is present, so these are removed before
// parsing.
var offToggleRe = regexp.MustCompile(`<w:[bi]\s+w:val="(?:0|false|off)"\s*(?:/>|>\s*</w:[bi]>)`)

// rewriteEntry returns a copy of the zip archive in data with the named
// entry passed through fn.
func rewriteEntry(data []byte, name string, fn func([]byte) []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if f.Name == name {
			body = fn(body)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func docxParagraph(para *docx.Paragraph) *doctree.Paragraph {
	p := &doctree.Paragraph{}
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var buf strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
		if buf.Len() == 0 {
			continue
		}
		tr := &doctree.TextRun{Content: buf.String()}
		if rp := run.RunProperties; rp != nil && (rp.Bold != nil || rp.Italic != nil) {
			tr.TextStyle = &doctree.TextStyle{Bold: rp.Bold != nil, Italic: rp.Italic != nil}
		}
		p.Elements = append(p.Elements, doctree.ParagraphElement{TextRun: tr})
	}
	// Docs paragraphs end with a newline; keep the same shape.
	p.Elements = append(p.Elements, doctree.ParagraphElement{TextRun: &doctree.TextRun{Content: "\n"}})

	if style := docxNamedStyle(para); style != "" {
		p.ParagraphStyle = &doctree.ParagraphStyle{NamedStyleType: style}
	}
	return p
}

// docxNamedStyle maps Word paragraph style ids onto Docs named styles.
func docxNamedStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title":
		return doctree.StyleTitle
	case "subtitle":
		return doctree.StyleSubtitle
	}
	if lvl, ok := strings.CutPrefix(style, "heading"); ok {
		if n, err := strconv.Atoi(lvl); err == nil && n >= 1 && n <= 6 {
			return "HEADING_" + lvl
		}
	}
	return ""
}
