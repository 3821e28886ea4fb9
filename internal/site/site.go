// Package site renders the HTML pages: the document shell with every tab as
// a section, and the loading and error pages shown before a document exists.
package site

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/nav"
	"github.com/dgallion1/tabsite/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Meta is the site-wide metadata from configuration.
type Meta struct {
	Title           string
	Description     string
	GAMeasurementID string
	BaseURL         string
}

// Section is one tab as laid out on the page.
type Section struct {
	Index         int
	Number        int
	Slug          string
	Title         string
	Heading       string
	Author        string
	Date          string
	Description   string
	FeaturedImage string
	Body          template.HTML
}

// PageData feeds every template.
type PageData struct {
	Title       string
	Description string
	Canonical   string
	GAID        string
	// Refresh reloads the page after this many seconds when non-zero.
	Refresh int

	DocTitle string
	Sections []Section
	// Active is the section the page opens on; Jump asks the browser to
	// scroll there on load.
	Active int
	Jump   bool
	Scroll string

	Error string
}

// Site holds the parsed templates. It is safe for concurrent use.
type Site struct {
	tpl    *template.Template
	render *render.Renderer
	meta   Meta
	scroll string
}

func New(r *render.Renderer, meta Meta, scroll nav.ScrollConfig) (*Site, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	cfg, err := json.Marshal(scroll)
	if err != nil {
		return nil, fmt.Errorf("encode scroll config: %w", err)
	}
	meta.BaseURL = strings.TrimRight(meta.BaseURL, "/")
	return &Site{tpl: tpl, render: r, meta: meta, scroll: string(cfg)}, nil
}

// Static serves the embedded stylesheet and script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Document writes the full page with every tab. active selects the section
// the page opens on; jump is set for deep links.
func (s *Site) Document(w io.Writer, doc *doctree.Document, active int, jump bool) error {
	sections := make([]Section, 0, len(doc.Tabs))
	for i, tab := range doc.Tabs {
		body, err := s.render.TabHTML(tab)
		if err != nil {
			return fmt.Errorf("render tab %q: %w", tab.Title, err)
		}
		sec := Section{
			Index:         i,
			Number:        i + 1,
			Slug:          nav.Slugify(tab.Title),
			Title:         tab.Title,
			Heading:       tab.Title,
			Author:        tab.FrontMatter.Author(),
			Date:          tab.FrontMatter.Date(),
			Description:   tab.FrontMatter.Description(),
			FeaturedImage: tab.FrontMatter.FeaturedImage(),
			Body:          body,
		}
		if t := tab.FrontMatter.Title(); t != "" {
			sec.Heading = t
		}
		sections = append(sections, sec)
	}

	data := s.base(doc.Title)
	data.DocTitle = doc.Title
	data.Sections = sections
	data.Active = active
	data.Jump = jump
	data.Scroll = s.scroll
	if jump && active >= 0 && active < len(sections) {
		data.Canonical = s.url("/" + sections[active].Slug)
		if sections[active].Description != "" {
			data.Description = sections[active].Description
		}
	} else {
		data.Canonical = s.url("/")
	}
	return s.tpl.ExecuteTemplate(w, "document", data)
}

// Loading writes the page shown while the first fetch is in flight.
func (s *Site) Loading(w io.Writer) error {
	data := s.base("")
	data.Refresh = 2
	return s.tpl.ExecuteTemplate(w, "loading", data)
}

// Error writes the retryable error page.
func (s *Site) Error(w io.Writer, msg string) error {
	data := s.base("")
	data.Error = msg
	return s.tpl.ExecuteTemplate(w, "error", data)
}

func (s *Site) base(docTitle string) PageData {
	title := s.meta.Title
	if title == "" {
		title = docTitle
	}
	return PageData{
		Title:       title,
		Description: s.meta.Description,
		GAID:        s.meta.GAMeasurementID,
	}
}

func (s *Site) url(path string) string {
	if s.meta.BaseURL == "" {
		return ""
	}
	return s.meta.BaseURL + path
}
