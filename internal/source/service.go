package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/frontmatter"
	"github.com/dgallion1/tabsite/internal/nav"
)

// DefaultDraftPrefixes mark a tab title as unpublished.
var DefaultDraftPrefixes = []string{"[draft]", "draft:", "_"}

// Options control which tabs are published.
type Options struct {
	// DraftPrefixes are matched case-insensitively against the trimmed title.
	DraftPrefixes []string
	// RequirePublished drops tabs without "published: true" front matter.
	// When false only an explicit "published: false" hides a tab.
	RequirePublished bool
}

// Service fetches the raw document and reduces it to its published tabs
// with front matter split off.
type Service struct {
	src      Source
	prefixes []string
	strict   bool
	log      *slog.Logger
}

func NewService(src Source, opts Options, log *slog.Logger) *Service {
	prefixes := make([]string, 0, len(opts.DraftPrefixes))
	for _, p := range opts.DraftPrefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Service{src: src, prefixes: prefixes, strict: opts.RequirePublished, log: log}
}

// Fetch returns the published document. Every error wraps ErrFetch.
func (s *Service) Fetch(ctx context.Context) (*doctree.Document, error) {
	raw, err := s.src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return nil, err
	}

	doc := &doctree.Document{Title: raw.Title, Tabs: make([]doctree.Tab, 0, len(raw.Tabs))}
	for _, tab := range raw.Tabs {
		if s.IsDraft(tab.Title) {
			s.log.Debug("skipping draft tab", "title", tab.Title)
			continue
		}
		if len(tab.RichContent) > 0 {
			res := frontmatter.Parse(tab.RichContent)
			tab.FrontMatter = res.FrontMatter
			tab.RichContent = res.Content
			tab.Content = res.Content.Text()
		}
		if !s.published(tab.FrontMatter) {
			s.log.Debug("skipping unpublished tab", "title", tab.Title)
			continue
		}
		doc.Tabs = append(doc.Tabs, tab)
	}
	doc.Content = joinContent(doc.Tabs)

	for _, slug := range nav.DuplicateSlugs(doc.Tabs) {
		s.log.Warn("duplicate tab slug, only the first tab is addressable", "slug", slug)
	}
	s.log.Info("document fetched", "title", doc.Title, "tabs", len(doc.Tabs), "skipped", len(raw.Tabs)-len(doc.Tabs))
	return doc, nil
}

// IsDraft reports whether a tab title carries a draft prefix.
func (s *Service) IsDraft(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, p := range s.prefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

func (s *Service) published(fm doctree.FrontMatter) bool {
	pub, set := fm.Published()
	if set {
		return pub
	}
	return !s.strict
}
