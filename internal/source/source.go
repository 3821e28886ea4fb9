// Package source fetches the published document from Google Docs or an
// offline export and applies the publishing rules.
package source

import (
	"context"
	"errors"

	"github.com/dgallion1/tabsite/internal/doctree"
)

// ErrFetch wraps every failure to obtain or decode the upstream document.
var ErrFetch = errors.New("failed to fetch document")

// Source produces the raw document: every tab, drafts and front matter
// included.
type Source interface {
	Fetch(ctx context.Context) (*doctree.Document, error)
}
