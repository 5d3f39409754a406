// Package loam keeps gathered notebooks in a loam repository, so they can be
// listed, read back and watched like any other loam document.
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/adapters/fs"
)

// Ext is the extension notebooks are saved under.
const Ext = ".ipynb"

// Notebook is an nbformat document as stored in the repository. Cells are
// kept as decoded JSON so that nothing the exporter wrote is lost.
type Notebook struct {
	Cells         []map[string]any `json:"cells" mapstructure:"cells"`
	Metadata      map[string]any   `json:"metadata" mapstructure:"metadata"`
	NBFormat      int              `json:"nbformat" mapstructure:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor" mapstructure:"nbformat_minor"`
}

// Documents implements ports.DocumentProvider on top of a loam repository.
type Documents struct {
	Repo *loam.TypedRepository[Notebook]

	// mu makes NextNewURI and the Open that follows it race free between
	// concurrent gathers in one process.
	mu sync.Mutex
}

// New wraps an existing repository.
func New(repo *loam.TypedRepository[Notebook]) *Documents {
	return &Documents{Repo: repo}
}

// Open initializes a repository in dir, creating it if needed. Notebooks are
// read and written with the strict JSON serializer so execution counts stay
// integers.
func Open(dir string) (*Documents, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", absPath, err)
	}

	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
		loam.WithStrict(true),
		loam.WithSerializer(Ext, fs.NewJSONSerializer(true)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Notebook](repo)), nil
}

// NextNewURI returns the first Untitled-N.ipynb not in the repository.
func (d *Documents) NextNewURI(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids, err := d.List(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	for n := 1; ; n++ {
		uri := fmt.Sprintf("Untitled-%d%s", n, Ext)
		if !taken[uri] {
			return uri, nil
		}
	}
}

// Open saves contents, an nbformat JSON document, under uri.
func (d *Documents) Open(ctx context.Context, uri string, contents string) error {
	var nb Notebook
	if err := json.Unmarshal([]byte(contents), &nb); err != nil {
		return fmt.Errorf("document %s is not a notebook: %w", uri, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.Repo.Save(ctx, &loam.DocumentModel[Notebook]{
		ID:   documentID(uri),
		Data: nb,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", uri, err)
	}
	return nil
}

// Get reads the notebook saved under uri.
func (d *Documents) Get(ctx context.Context, uri string) (Notebook, error) {
	doc, err := d.Repo.Get(ctx, documentID(uri))
	if err != nil {
		return Notebook{}, fmt.Errorf("loam get failed for %s: %w", uri, err)
	}
	return doc.Data, nil
}

// List returns the saved notebooks as sorted uris.
func (d *Documents) List(ctx context.Context) ([]string, error) {
	docs, err := d.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if !strings.HasSuffix(doc.ID, Ext) && filepath.Ext(doc.ID) != "" {
			continue
		}
		ids = append(ids, documentID(doc.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch reports the uri of every notebook that changes until ctx is done.
func (d *Documents) Watch(ctx context.Context) (<-chan string, error) {
	events, err := d.Repo.Watch(ctx, "**/*"+Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- documentID(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// documentID maps a uri to the repository id. The untitled: scheme is
// dropped and the notebook extension added when missing, so the JSON
// serializer is picked instead of the front-matter default.
func documentID(uri string) string {
	id := strings.TrimPrefix(uri, "untitled:")
	id = strings.TrimPrefix(filepath.ToSlash(id), "./")
	if !strings.HasSuffix(id, Ext) {
		id += Ext
	}
	return id
}
