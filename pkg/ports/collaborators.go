package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// NotebookExporter converts cells into a notebook document.
type NotebookExporter interface {
	TranslateToNotebook(ctx context.Context, cells []domain.Cell) (any, error)
}

// DocumentProvider opens documents in the hosting shell.
type DocumentProvider interface {
	// NextNewURI returns an unused location for an untitled document.
	NextNewURI(ctx context.Context) (string, error)

	// Open shows contents as the document at uri.
	Open(ctx context.Context, uri string, contents string) error
}

// GatherEngine computes the minimal code that reproduces a cell.
type GatherEngine interface {
	GatherCode(ctx context.Context, cell domain.Cell) (string, error)

	// ResetLog forgets every execution recorded so far.
	ResetLog()
}

// Listener reacts to messages coming from the execution host.
type Listener interface {
	HandleMessage(ctx context.Context, msg domain.Message) error
}
