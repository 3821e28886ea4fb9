package docstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/dgallion1/tabsite/internal/doctree"
	"github.com/dgallion1/tabsite/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	mu    sync.Mutex
	calls int
	fetch func(ctx context.Context, call int) (*doctree.Document, error)
}

func (f *fakeSource) Fetch(ctx context.Context) (*doctree.Document, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fetch(ctx, call)
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func titled(title string) *doctree.Document {
	return &doctree.Document{Title: title, Tabs: []doctree.Tab{{Title: "One"}}}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStore_GetFetchesFromIdle(t *testing.T) {
	src := &fakeSource{fetch: func(context.Context, int) (*doctree.Document, error) {
		return titled("Doc"), nil
	}}
	s := New(src, testLogger())

	if st := s.Snapshot(); st.Status != StatusIdle || st.Document != nil {
		t.Fatalf("expected idle empty store, got %+v", st)
	}

	doc, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Doc" {
		t.Errorf("expected Doc, got %q", doc.Title)
	}
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Calls() != 1 {
		t.Errorf("expected one fetch, got %d", src.Calls())
	}
	st := s.Snapshot()
	if st.Status != StatusReady || st.Loading || st.Error != "" || st.FetchedAt.IsZero() {
		t.Errorf("expected ready state, got %+v", st)
	}
}

func TestStore_ErrorIsNotRetried(t *testing.T) {
	src := &fakeSource{fetch: func(context.Context, int) (*doctree.Document, error) {
		return nil, source.ErrFetch
	}}
	s := New(src, testLogger())

	if _, err := s.Get(context.Background()); !errors.Is(err, source.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	_, err := s.Get(context.Background())
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
	if src.Calls() != 1 {
		t.Errorf("expected no retry, got %d fetches", src.Calls())
	}
	if st := s.Snapshot(); st.Status != StatusError || st.Error == "" {
		t.Errorf("expected error state with message, got %+v", st)
	}
}

func TestStore_FailedRefetchKeepsDocument(t *testing.T) {
	src := &fakeSource{fetch: func(_ context.Context, call int) (*doctree.Document, error) {
		if call == 1 {
			return titled("Good"), nil
		}
		return nil, errors.New("upstream down")
	}}
	s := New(src, testLogger())
	ctx := context.Background()

	if _, err := s.Refetch(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Refetch(ctx); err == nil {
		t.Fatal("expected second refetch to fail")
	}

	st := s.Snapshot()
	if st.Status != StatusError || st.Error != "upstream down" {
		t.Errorf("expected error state, got %+v", st)
	}
	doc, err := s.Get(ctx)
	if err != nil || doc.Title != "Good" {
		t.Errorf("expected stale document, got %v, %v", doc, err)
	}
}

func TestStore_LoadingState(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{fetch: func(context.Context, int) (*doctree.Document, error) {
		<-release
		return titled("Late"), nil
	}}
	s := New(src, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refetch(context.Background())
	}()

	waitFor(t, func() bool { return s.Snapshot().Loading })
	if st := s.Snapshot(); st.Status != StatusLoading {
		t.Errorf("expected loading status, got %s", st.Status)
	}
	if _, err := s.Get(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument while loading, got %v", err)
	}

	close(release)
	<-done
	if st := s.Snapshot(); st.Loading || st.Document == nil {
		t.Errorf("expected finished fetch, got %+v", st)
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	first := make(chan struct{})
	src := &fakeSource{fetch: func(_ context.Context, call int) (*doctree.Document, error) {
		if call == 1 {
			<-first
			return titled("first"), nil
		}
		return titled("second"), nil
	}}
	s := New(src, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refetch(context.Background())
	}()
	waitFor(t, func() bool { return src.Calls() == 1 })

	if _, err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Snapshot(); got.Document.Title != "second" || !got.Loading {
		t.Errorf("expected second result while first is in flight, got %+v", got)
	}

	close(first)
	<-done
	if got := s.Snapshot().Document.Title; got != "first" {
		t.Errorf("expected the slower fetch to win, got %q", got)
	}
}

func TestStore_Timeout(t *testing.T) {
	src := &fakeSource{fetch: func(ctx context.Context, _ int) (*doctree.Document, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := New(src, testLogger(), WithTimeout(10*time.Millisecond))
	if _, err := s.Refetch(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestStore_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{fetch: func(context.Context, int) (*doctree.Document, error) {
		return titled("Doc"), nil
	}}
	s := New(src, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, 5*time.Millisecond)
	}()

	waitFor(t, func() bool { return src.Calls() >= 2 })
	cancel()
	<-done

	s.Run(context.Background(), 0)
}
