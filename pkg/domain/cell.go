package domain

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// CellState is the execution/display state of a cell.
type CellState string

const (
	CellStateNotSubmitted CellState = "not_submitted"
	CellStateQueued       CellState = "queued"
	CellStateExecuting    CellState = "executing"
	CellStateFinished     CellState = "finished"
	CellStateError        CellState = "error"
)

// CellType distinguishes code cells from markdown cells.
type CellType string

const (
	CellTypeCode     CellType = "code"
	CellTypeMarkdown CellType = "markdown"
)

// EmptyFileName is the file path given to cells that were created inside the
// editor rather than pushed from a source file.
const EmptyFileName = "2DB9B899-6519-4E1B-88B0-FA728A274115"

// Source is cell text, possibly stored as several line fragments.
// It decodes from either a JSON string or a JSON array of strings.
type Source []string

// NewSource wraps a single string.
func NewSource(text string) Source {
	if text == "" {
		return Source{}
	}
	return Source{text}
}

// String concatenates every fragment.
func (s Source) String() string {
	return strings.Join(s, "")
}

// UnmarshalJSON accepts "text" or ["line\n", "line"].
func (s *Source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = NewSource(text)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*s = parts
	return nil
}

// CellData is the content part of a cell.
type CellData struct {
	CellType       CellType         `json:"cell_type" mapstructure:"cell_type"`
	Source         Source           `json:"source" mapstructure:"source"`
	Outputs        []map[string]any `json:"outputs,omitempty" mapstructure:"outputs"`
	ExecutionCount *int             `json:"execution_count,omitempty" mapstructure:"execution_count"`
	Metadata       map[string]any   `json:"metadata,omitempty" mapstructure:"metadata"`
}

// Cell is one unit of document content.
type Cell struct {
	ID    string    `json:"id" mapstructure:"id"`
	File  string    `json:"file" mapstructure:"file"`
	Line  int       `json:"line" mapstructure:"line"`
	State CellState `json:"state" mapstructure:"state"`
	Data  CellData  `json:"data" mapstructure:"data"`
}

// IsCode reports whether the cell holds code.
func (c Cell) IsCode() bool {
	return c.Data.CellType == CellTypeCode
}

// SameOrigin reports whether other refers to the same cell in the same
// file position. Cells pushed by the host are matched by this triple.
func (c Cell) SameOrigin(other Cell) bool {
	return c.ID == other.ID && c.Line == other.Line && samePath(c.File, other.File)
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// NewEmptyCell creates a blank code cell with the given id.
func NewEmptyCell(id string) Cell {
	return Cell{
		ID:    id,
		File:  EmptyFileName,
		Line:  0,
		State: CellStateFinished,
		Data: CellData{
			CellType: CellTypeCode,
			Source:   Source{},
			Outputs:  []map[string]any{},
			Metadata: map[string]any{},
		},
	}
}

// CellViewModel is a Cell plus the transient UI flags of the editor.
type CellViewModel struct {
	Cell           Cell   `json:"cell"`
	Focused        bool   `json:"focused"`
	Selected       bool   `json:"selected"`
	Editable       bool   `json:"editable"`
	InputBlockOpen bool   `json:"input_block_open"`
	InputBlockText string `json:"input_block_text"`
}

// ID is a shortcut for the wrapped cell id.
func (vm CellViewModel) ID() string {
	return vm.Cell.ID
}
