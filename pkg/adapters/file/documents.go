package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Documents implements ports.DocumentProvider by writing documents into a
// directory as Untitled-N.ipynb.
type Documents struct {
	BasePath string

	mu sync.Mutex
}

// NewDocuments creates a provider rooted at basePath.
// If basePath is empty, it defaults to ".folio/documents".
func NewDocuments(basePath string) *Documents {
	if basePath == "" {
		basePath = filepath.Join(".folio", "documents")
	}
	return &Documents{BasePath: basePath}
}

// NextNewURI returns the path of the first Untitled-N.ipynb that does not exist yet.
func (d *Documents) NextNewURI(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := filepath.Join(d.BasePath, fmt.Sprintf("Untitled-%d.ipynb", n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
	}
}

// Open writes contents to uri. Relative uris are resolved against BasePath.
func (d *Documents) Open(ctx context.Context, uri string, contents string) error {
	target := uri
	if !filepath.IsAbs(target) && !strings.HasPrefix(filepath.Clean(target), filepath.Clean(d.BasePath)) {
		target = filepath.Join(d.BasePath, target)
	}
	return writeAtomic(target, []byte(contents))
}
