package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/tabsite/internal/config"
	"github.com/dgallion1/tabsite/internal/docstore"
	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/nav"
	"github.com/dgallion1/tabsite/internal/render"
	"github.com/dgallion1/tabsite/internal/site"
	"github.com/dgallion1/tabsite/internal/source"
)

type stubSource struct {
	mu  sync.Mutex
	doc *doctree.Document
	err error
}

func (s *stubSource) Fetch(context.Context) (*doctree.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.err
}

func (s *stubSource) set(doc *doctree.Document, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc, s.err = doc, err
}

func testDoc() *doctree.Document {
	return &doctree.Document{
		Title:   "Field Guide",
		Content: "Welcome\n\nDetails",
		Tabs: []doctree.Tab{
			{Title: "Getting Started", Content: "Welcome"},
			{
				Title: "Deep Dive",
				RichContent: doctree.Elements{{Paragraph: &doctree.Paragraph{
					Elements: []doctree.ParagraphElement{{TextRun: &doctree.TextRun{
						Content:   "Details\n",
						TextStyle: &doctree.TextStyle{Bold: true},
					}}},
				}}},
				Content: "Details",
			},
		},
	}
}

func newTestServer(t *testing.T, src *stubSource) *httptest.Server {
	t.Helper()
	return newTestServerWithConfig(t, src, config.Config{CORSOrigins: []string{"*"}})
}

func newTestServerWithConfig(t *testing.T, src *stubSource, cfg config.Config) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rend := render.New()
	pages, err := site.New(rend, site.Meta{}, nav.DefaultScrollConfig())
	if err != nil {
		t.Fatalf("site.New: %v", err)
	}
	store := docstore.New(src, log)
	srv := httptest.NewServer(NewServer(store, pages, rend, log, cfg))
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect stops the client at the first response so redirects can be
// asserted.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := noRedirect.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})
	resp, body := get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusOK || body != `{"status":"ok"}` {
		t.Errorf("expected ok health, got %d %s", resp.StatusCode, body)
	}
}

func TestGetDocument(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})
	resp, body := get(t, srv.URL+"/api/document")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var doc doctree.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "Field Guide" || len(doc.Tabs) != 2 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if len(doc.Tabs[1].RichContent) != 1 || !doc.Tabs[1].RichContent[0].Paragraph.Elements[0].TextRun.TextStyle.Bold {
		t.Errorf("expected rich content to round-trip, got %+v", doc.Tabs[1].RichContent)
	}
}

func TestGetDocument_UpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubSource{err: errors.Join(source.ErrFetch, errors.New("quota exceeded"))})
	resp, body := get(t, srv.URL+"/api/document")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(payload["error"], "quota exceeded") {
		t.Errorf("expected upstream message in error, got %q", payload["error"])
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/document", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS header, got %q", got)
	}
}

func TestGetTab(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})

	resp, body := get(t, srv.URL+"/api/tabs/deep-dive")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var tr tabResponse
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.Index != 1 || tr.Slug != "deep-dive" || tr.Tab.Title != "Deep Dive" {
		t.Errorf("unexpected tab response: %+v", tr)
	}
	if !strings.Contains(tr.HTML, "<strong>Details</strong>") {
		t.Errorf("expected rendered html, got %q", tr.HTML)
	}

	resp, _ = get(t, srv.URL+"/api/tabs/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown tab, got %d", resp.StatusCode)
	}
}

func TestGetTabMarkdown(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})
	resp, body := get(t, srv.URL+"/api/tabs/deep-dive/markdown")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}
	if !strings.HasPrefix(body, "# Deep Dive\n") || !strings.Contains(body, "**Details**") {
		t.Errorf("unexpected markdown: %q", body)
	}
}

func TestPages(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `id="tab-0"`) || !strings.Contains(body, `id="tab-1"`) {
		t.Error("expected every tab on the landing page")
	}
	if strings.Contains(body, "data-jump") {
		t.Error("expected no jump on the landing page")
	}

	resp, body = get(t, srv.URL+"/deep-dive")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `data-active="1" data-jump="true"`) {
		t.Error("expected deep link to open on tab 1")
	}
	if !strings.Contains(body, `id="tab-0"`) {
		t.Error("expected deep link to render every tab")
	}

	resp, _ = get(t, srv.URL+"/not-a-tab")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Errorf("expected redirect home, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestErrorPageAndRetry(t *testing.T) {
	src := &stubSource{err: errors.Join(source.ErrFetch, errors.New("bad credentials"))}
	srv := newTestServer(t, src)

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "bad credentials") || !strings.Contains(body, "Try Again") {
		t.Errorf("expected error page with retry, got:\n%s", body)
	}

	src.set(testDoc(), nil)
	resp, err := noRedirect.PostForm(srv.URL+"/api/document/refresh", url.Values{})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("expected 303 home, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Field Guide") {
		t.Errorf("expected document after retry, got %d", resp.StatusCode)
	}
}

func TestRefreshJSON(t *testing.T) {
	src := &stubSource{doc: testDoc()}
	srv := newTestServer(t, src)

	resp, err := http.Post(srv.URL+"/api/document/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	src.set(nil, source.ErrFetch)
	resp, err = http.Post(srv.URL+"/api/document/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}

	// The stale document keeps serving.
	resp, _ = get(t, srv.URL+"/api/document")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected stale document, got %d", resp.StatusCode)
	}
}

func TestRefreshRateLimit(t *testing.T) {
	src := &stubSource{doc: testDoc()}
	srv := newTestServerWithConfig(t, src, config.Config{RefreshRateLimit: 2})

	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/api/document/refresh", "application/json", nil)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp, err := http.Post(srv.URL+"/api/document/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "too many refresh requests") {
		t.Errorf("expected JSON error body, got %s", body)
	}

	// Reads are not limited.
	resp, _ = get(t, srv.URL+"/api/document")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected document reads to stay open, got %d", resp.StatusCode)
	}
}

func TestStatic(t *testing.T) {
	srv := newTestServer(t, &stubSource{doc: testDoc()})
	resp, body := get(t, srv.URL+"/static/site.js")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "replaceState") {
		t.Errorf("expected site.js, got %d", resp.StatusCode)
	}
}
