package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/api/docs/v1"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// Snapshot reads a saved documents.get response from disk.
type Snapshot struct {
	Path string
}

func (s *Snapshot) Fetch(ctx context.Context) (*doctree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %w", ErrFetch, err)
	}
	var doc docs.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot %s: %w", ErrFetch, s.Path, err)
	}
	return Convert(&doc), nil
}
