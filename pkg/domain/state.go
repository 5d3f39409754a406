package domain

// Variable is a summary of one variable reported by the execution host.
// The core only counts and carries them.
type Variable struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  int    `json:"size,omitempty"`
	Value string `json:"value,omitempty"`
}

// Font describes the editor font.
type Font struct {
	Size   int    `json:"size"`
	Family string `json:"family"`
}

// State is the snapshot of one open document.
// Reducers never mutate a State in place; they return a new one.
type State struct {
	// Cells is the visible document order. Ids are unique.
	Cells []CellViewModel `json:"cells"`

	// FocusedCellID and SelectedCellID reference Cells by id. Empty means none.
	FocusedCellID  string `json:"focused_cell_id,omitempty"`
	SelectedCellID string `json:"selected_cell_id,omitempty"`

	// CurrentExecutionCount never decreases.
	CurrentExecutionCount int `json:"current_execution_count"`

	VariablesVisible     bool       `json:"variables_visible"`
	Variables            []Variable `json:"variables"`
	PendingVariableCount int        `json:"pending_variable_count"`

	EnableGather bool `json:"enable_gather"`

	// Carried, not interpreted.
	Busy          bool              `json:"busy"`
	UndoStack     [][]CellViewModel `json:"undo_stack"`
	RedoStack     [][]CellViewModel `json:"redo_stack"`
	SubmittedText bool              `json:"submitted_text"`
	Debugging     bool              `json:"debugging"`
	KnownDark     bool              `json:"known_dark"`
	IsAtBottom    bool              `json:"is_at_bottom"`
	SkipDefault   bool              `json:"skip_default"`
	TestMode      bool              `json:"test_mode"`
	BaseTheme     string            `json:"base_theme"`
	EditorOptions map[string]any    `json:"editor_options,omitempty"`
	Font          Font              `json:"font"`
}

// DefaultFont is the font an editor opens with.
var DefaultFont = Font{
	Size:   14,
	Family: "Consolas, 'Courier New', monospace",
}

// NewState creates the default state of a freshly opened editor.
// When ignoreTheme is set the light theme is forced.
func NewState(skipDefault bool, baseTheme string, ignoreTheme bool) State {
	if ignoreTheme {
		baseTheme = "vscode-light"
	}
	return State{
		SkipDefault:   skipDefault,
		BaseTheme:     baseTheme,
		Cells:         []CellViewModel{},
		Busy:          true,
		UndoStack:     [][]CellViewModel{},
		RedoStack:     [][]CellViewModel{},
		Variables:     []Variable{},
		IsAtBottom:    true,
		EditorOptions: map[string]any{},
		Font:          DefaultFont,
	}
}

// IndexOf returns the position of the cell with the given id, or -1.
func (s State) IndexOf(cellID string) int {
	if cellID == "" {
		return -1
	}
	for i, vm := range s.Cells {
		if vm.Cell.ID == cellID {
			return i
		}
	}
	return -1
}

// Cell returns the view model with the given id.
func (s State) Cell(cellID string) (CellViewModel, bool) {
	i := s.IndexOf(cellID)
	if i < 0 {
		return CellViewModel{}, false
	}
	return s.Cells[i], true
}

// CloneCells returns a copy of the cell slice that can be modified
// without touching the receiver.
func (s State) CloneCells() []CellViewModel {
	out := make([]CellViewModel, len(s.Cells))
	copy(out, s.Cells)
	return out
}

// Snapshot returns a copy safe to hand to other goroutines.
func (s State) Snapshot() State {
	out := s
	out.Cells = s.CloneCells()
	out.Variables = append([]Variable(nil), s.Variables...)
	if s.EditorOptions != nil {
		out.EditorOptions = make(map[string]any, len(s.EditorOptions))
		for k, v := range s.EditorOptions {
			out.EditorOptions[k] = v
		}
	}
	return out
}
