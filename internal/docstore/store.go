// Package docstore keeps the most recently fetched document and its loading
// and error state for the page and API handlers.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/source"
)

// ErrNoDocument is returned by Get when no document is available yet.
var ErrNoDocument = errors.New("document not available")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is a point-in-time copy of the store. Document may be non-nil in
// every status except idle: a failed or in-flight refresh keeps the last
// good document.
type State struct {
	Document  *doctree.Document
	Loading   bool
	Error     string
	Status    Status
	FetchedAt time.Time
}

// Cache persists the last good document across restarts and instances.
type Cache interface {
	Load(ctx context.Context) (*doctree.Document, error)
	Save(ctx context.Context, doc *doctree.Document) error
}

type Option func(*Store)

// WithCache warms the store from c and writes every fetched document back.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithTimeout bounds each upstream fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// Store holds {document, loading, error}. Refetches are not sequenced: when
// two overlap, whichever finishes last wins.
type Store struct {
	src     source.Source
	cache   Cache
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	doc      *doctree.Document
	err      string
	status   Status
	inflight int
	fetched  time.Time
}

func New(src source.Source, log *slog.Logger, opts ...Option) *Store {
	s := &Store{src: src, log: log, status: StatusIdle}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Document:  s.doc,
		Loading:   s.inflight > 0,
		Error:     s.err,
		Status:    s.status,
		FetchedAt: s.fetched,
	}
}

// Warm loads the cached document, if any, so pages render before the first
// upstream fetch completes. Cache failures are logged and ignored.
func (s *Store) Warm(ctx context.Context) {
	if s.cache == nil {
		return
	}
	doc, err := s.cache.Load(ctx)
	if err != nil {
		s.log.Warn("document cache load failed", "error", err)
		return
	}
	if doc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		s.doc = doc
		if s.status == StatusIdle {
			s.status = StatusReady
		}
		s.log.Info("document loaded from cache", "title", doc.Title, "tabs", len(doc.Tabs))
	}
}

// Get returns the held document. From idle it fetches synchronously; after
// a failed fetch with nothing held it returns the stored error without
// retrying. While the first fetch is in flight it returns ErrNoDocument.
func (s *Store) Get(ctx context.Context) (*doctree.Document, error) {
	s.mu.Lock()
	doc, status, msg := s.doc, s.status, s.err
	s.mu.Unlock()

	switch {
	case doc != nil:
		return doc, nil
	case status == StatusIdle:
		return s.Refetch(ctx)
	case status == StatusError:
		return nil, fmt.Errorf("%w: %s", ErrNoDocument, msg)
	default:
		return nil, fmt.Errorf("%w: loading", ErrNoDocument)
	}
}

// Refetch fetches the document from any state. The held document stays
// visible until the fetch completes.
func (s *Store) Refetch(ctx context.Context) (*doctree.Document, error) {
	s.mu.Lock()
	s.inflight++
	s.err = ""
	s.status = StatusLoading
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	doc, err := s.src.Fetch(ctx)

	s.mu.Lock()
	s.inflight--
	if err != nil {
		s.err = err.Error()
		s.status = StatusError
	} else {
		s.doc = doc
		s.status = StatusReady
		s.fetched = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("document fetch failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	s.log.Info("document refreshed", "tabs", len(doc.Tabs), "duration_ms", time.Since(start).Milliseconds())

	if s.cache != nil {
		if err := s.cache.Save(ctx, doc); err != nil {
			s.log.Warn("document cache save failed", "error", err)
		}
	}
	return doc, nil
}

// Run refetches every interval until ctx is cancelled. A non-positive
// interval disables refreshing and Run returns immediately.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refetch(ctx)
		}
	}
}
