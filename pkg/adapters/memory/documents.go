package memory

import (
	"context"
	"fmt"
	"sync"
)

// Documents implements ports.DocumentProvider by keeping opened documents
// in a map. Useful for tests and for hosts that read documents back.
type Documents struct {
	mu     sync.Mutex
	docs   map[string]string
	order  []string
	serial int
}

// NewDocuments creates an empty provider.
func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]string)}
}

// NextNewURI returns the next unused untitled name.
func (d *Documents) NextNewURI(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		d.serial++
		uri := fmt.Sprintf("untitled:Untitled-%d.ipynb", d.serial)
		if _, taken := d.docs[uri]; !taken {
			return uri, nil
		}
	}
}

// Open stores contents under uri.
func (d *Documents) Open(ctx context.Context, uri string, contents string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.docs[uri]; !ok {
		d.order = append(d.order, uri)
	}
	d.docs[uri] = contents
	return nil
}

// Get returns the contents of an opened document.
func (d *Documents) Get(uri string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	contents, ok := d.docs[uri]
	return contents, ok
}

// URIs lists opened documents in the order they were first opened.
func (d *Documents) URIs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}
