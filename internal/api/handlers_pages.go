package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/tabsite/internal/docstore"
	"github.com/dgallion1/tabsite/internal/nav"
)

// handlePage serves "/" and "/{tabSlug}". Both render every tab; a slug
// only selects where the page opens. Unknown slugs redirect home.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	st := s.store.Snapshot()
	if st.Document == nil && st.Status == docstore.StatusIdle {
		s.store.Get(r.Context())
		st = s.store.Snapshot()
	}

	var buf bytes.Buffer
	status := http.StatusOK
	var err error

	switch {
	case st.Document != nil:
		active, jump := 0, false
		if slug := chi.URLParam(r, "tabSlug"); slug != "" {
			match := nav.FindTabBySlug(st.Document.Tabs, slug)
			if match == nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			active, jump = match.Index, true
		}
		err = s.pages.Document(&buf, st.Document, active, jump)
	case st.Loading:
		err = s.pages.Loading(&buf)
	default:
		status = http.StatusInternalServerError
		err = s.pages.Error(&buf, st.Error)
	}

	if err != nil {
		s.log.Error("render page failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
