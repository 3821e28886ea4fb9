// Package frontmatter extracts the "---" delimited metadata block from the
// head of a tab and removes it from the rich content tree.
package frontmatter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/tabsite/internal/doctree"
)

const delimiter = "---"

// codeBlockMarker is the private-use character Google Docs emits in front
// of code block content.
const codeBlockMarker = '\ue907'

// Result is the outcome of Parse. FrontMatter is nil when no block was found,
// the block was unterminated, or it held no key/value pairs.
type Result struct {
	FrontMatter doctree.FrontMatter
	Content     doctree.Elements
}

// runSpan locates one text run inside the flattened text.
type runSpan struct {
	elem, child int
	start, end  int
}

// Parse looks for a front matter block at the start of elems. When there is
// none (or it is unterminated) the input slice is returned as Content
// untouched. Otherwise Content is a new tree with exactly the consumed
// characters removed; elems itself is never modified.
func Parse(elems doctree.Elements) Result {
	text, spans := flatten(elems)

	body := strings.TrimLeftFunc(text, unicode.IsSpace)
	if r, size := utf8.DecodeRuneInString(body); r == codeBlockMarker {
		body = strings.TrimLeftFunc(body[size:], unicode.IsSpace)
	}
	offset := len(text) - len(body)

	if !strings.HasPrefix(body, delimiter) {
		return Result{Content: elems}
	}

	lines, consumed, ok := block(body)
	if !ok {
		return Result{Content: elems}
	}

	fm := doctree.FrontMatter{}
	for _, line := range lines {
		if key, value, ok := parseLine(line); ok {
			fm[key] = value
		}
	}
	if len(fm) == 0 {
		fm = nil
	}

	return Result{
		FrontMatter: fm,
		Content:     strip(elems, spans, offset+consumed),
	}
}

// flatten concatenates the text runs of every paragraph. A paragraph whose
// text does not end in a newline is followed by a virtual one so that line
// structure survives trees built without trailing newlines.
func flatten(elems doctree.Elements) (string, []runSpan) {
	var b strings.Builder
	var spans []runSpan
	for i, el := range elems {
		if el.Paragraph == nil {
			continue
		}
		last := byte(0)
		for j, pe := range el.Paragraph.Elements {
			if pe.TextRun == nil {
				continue
			}
			start := b.Len()
			b.WriteString(pe.TextRun.Content)
			spans = append(spans, runSpan{elem: i, child: j, start: start, end: b.Len()})
			if c := pe.TextRun.Content; c != "" {
				last = c[len(c)-1]
			}
		}
		if last != 0 && last != '\n' {
			b.WriteByte('\n')
		}
	}
	return b.String(), spans
}

// block returns the interior lines of the block opening body and the number
// of bytes consumed through the closing delimiter line (including its
// newline). ok is false when no closing delimiter exists.
func block(body string) (lines []string, consumed int, ok bool) {
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return nil, 0, false
	}
	cursor := nl + 1
	for cursor < len(body) {
		var line string
		next := len(body)
		if i := strings.IndexByte(body[cursor:], '\n'); i >= 0 {
			line = body[cursor : cursor+i]
			next = cursor + i + 1
		} else {
			line = body[cursor:]
		}
		if strings.TrimSpace(line) == delimiter {
			return lines, next, true
		}
		lines = append(lines, line)
		cursor = next
	}
	return nil, 0, false
}

// parseLine parses a "key: value" line. Blank lines, comments and lines
// without a colon are skipped.
func parseLine(line string) (string, any, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, false
	}
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", nil, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, false
	}
	value = unquote(strings.TrimSpace(value))

	switch strings.ToLower(value) {
	case "true":
		return key, true, true
	case "false":
		return key, false, true
	}
	return key, value, true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// strip returns a copy of elems without the first n characters of flattened
// text. Runs entirely inside the span are dropped, a run crossing the
// boundary keeps its suffix and style, and paragraphs left empty disappear.
func strip(elems doctree.Elements, spans []runSpan, n int) doctree.Elements {
	byPos := make(map[[2]int]runSpan, len(spans))
	for _, s := range spans {
		byPos[[2]int{s.elem, s.child}] = s
	}

	out := make(doctree.Elements, 0, len(elems))
	for i, el := range elems {
		if el.Paragraph == nil {
			out = append(out, el)
			continue
		}

		var kept []doctree.ParagraphElement
		changed := false
		for j, pe := range el.Paragraph.Elements {
			if pe.TextRun == nil {
				kept = append(kept, pe)
				continue
			}
			s := byPos[[2]int{i, j}]
			switch {
			case s.start >= n:
				kept = append(kept, pe)
			case s.end <= n:
				changed = true
			default:
				changed = true
				suffix := pe.TextRun.Content[n-s.start:]
				if strings.TrimSpace(suffix) == "" {
					continue
				}
				kept = append(kept, doctree.ParagraphElement{
					TextRun: &doctree.TextRun{
						Content:   suffix,
						TextStyle: pe.TextRun.TextStyle,
					},
				})
			}
		}

		if !changed {
			out = append(out, el)
			continue
		}
		if len(kept) == 0 {
			continue
		}
		nel := el
		nel.Paragraph = &doctree.Paragraph{
			Elements:       kept,
			ParagraphStyle: el.Paragraph.ParagraphStyle,
		}
		out = append(out, nel)
	}
	return out
}
