package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/tabsite/internal/docstore"
	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/nav"
)

type tabResponse struct {
	Index int         `json:"index"`
	Slug  string      `json:"slug"`
	Tab   doctree.Tab `json:"tab"`
	HTML  string      `json:"html"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleRefresh refetches the document. Form posts from the error page are
// sent back to the landing page; API clients get the document as JSON.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Refetch(r.Context())

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "tabSlug")
	match := nav.FindTabBySlug(doc.Tabs, slug)
	if match == nil {
		jsonError(w, "tab not found", http.StatusNotFound)
		return
	}

	body, err := s.render.TabHTML(match.Tab)
	if err != nil {
		s.log.Error("render tab failed", "slug", slug, "error", err)
		jsonError(w, "failed to render tab", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tabResponse{
		Index: match.Index,
		Slug:  slug,
		Tab:   match.Tab,
		HTML:  string(body),
	})
}

func (s *Server) handleTabMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "tabSlug")
	match := nav.FindTabBySlug(doc.Tabs, slug)
	if match == nil {
		jsonError(w, "tab not found", http.StatusNotFound)
		return
	}

	md, err := s.render.Markdown(match.Tab)
	if err != nil {
		s.log.Error("markdown export failed", "slug", slug, "error", err)
		jsonError(w, "failed to export tab", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

// document loads the document for an API handler, writing the error
// response itself when there is none.
func (s *Server) document(w http.ResponseWriter, r *http.Request) (*doctree.Document, bool) {
	doc, err := s.store.Get(r.Context())
	if err == nil {
		return doc, true
	}
	if errors.Is(err, docstore.ErrNoDocument) && s.store.Snapshot().Loading {
		w.Header().Set("Retry-After", "2")
		jsonError(w, "document is loading", http.StatusServiceUnavailable)
		return nil, false
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
