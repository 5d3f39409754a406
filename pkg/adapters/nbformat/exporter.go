// Package nbformat exports cells as Jupyter notebook (nbformat 4) documents.
package nbformat

import (
	"context"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

// Notebook is an nbformat 4 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is one notebook cell.
type Cell struct {
	CellType       string           `json:"cell_type"`
	Source         []string         `json:"source"`
	Metadata       map[string]any   `json:"metadata"`
	Outputs        []map[string]any `json:"outputs,omitempty"`
	ExecutionCount *int             `json:"execution_count"`
}

// Exporter implements ports.NotebookExporter.
type Exporter struct {
	// KernelName is written into the kernelspec metadata when set.
	KernelName string
	// Language is written into the language_info metadata.
	Language string
}

// NewExporter creates an exporter for python notebooks.
func NewExporter() *Exporter {
	return &Exporter{KernelName: "python3", Language: "python"}
}

// TranslateToNotebook implements ports.NotebookExporter.
func (e *Exporter) TranslateToNotebook(_ context.Context, cells []domain.Cell) (any, error) {
	nb := &Notebook{
		Cells:         make([]Cell, 0, len(cells)),
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 2,
	}
	if e.Language != "" {
		nb.Metadata["language_info"] = map[string]any{"name": e.Language}
	}
	if e.KernelName != "" {
		nb.Metadata["kernelspec"] = map[string]any{
			"name":         e.KernelName,
			"display_name": e.KernelName,
			"language":     e.Language,
		}
	}

	for _, c := range cells {
		out := Cell{
			CellType: string(c.Data.CellType),
			Source:   splitLines(c.Data.Source.String()),
			Metadata: c.Data.Metadata,
		}
		if out.Metadata == nil {
			out.Metadata = map[string]any{}
		}
		if c.IsCode() {
			out.ExecutionCount = c.Data.ExecutionCount
			out.Outputs = c.Data.Outputs
			if out.Outputs == nil {
				out.Outputs = []map[string]any{}
			}
		}
		nb.Cells = append(nb.Cells, out)
	}
	return nb, nil
}

// splitLines returns text as nbformat multiline source: every line but the
// last keeps its newline.
func splitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	return strings.SplitAfter(strings.TrimSuffix(text, "\n"), "\n")
}
