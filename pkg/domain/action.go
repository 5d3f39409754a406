package domain

// ActionKind names a state transition request.
type ActionKind string

// Local (editor) actions.
const (
	KindInsertAbove            ActionKind = "insert_above"
	KindInsertBelow            ActionKind = "insert_below"
	KindInsertAboveFirst       ActionKind = "insert_above_first"
	KindAddNewCell             ActionKind = "add_new_cell"
	KindFocusCell              ActionKind = "focus_cell"
	KindUnfocusCell            ActionKind = "unfocus_cell"
	KindSelectCell             ActionKind = "select_cell"
	KindExecuteCell            ActionKind = "execute_cell"
	KindExecuteAllCells        ActionKind = "execute_all_cells"
	KindToggleVariableExplorer ActionKind = "toggle_variable_explorer"
	KindRefreshVariables       ActionKind = "refresh_variables"
	KindEnableGather           ActionKind = "enable_gather"
)

// Host-pushed notifications. They share their names with the inbound
// message kinds that carry them.
const (
	KindCellStarted  ActionKind = ActionKind(MsgStartCell)
	KindCellUpdated  ActionKind = ActionKind(MsgUpdateCell)
	KindCellFinished ActionKind = ActionKind(MsgFinishCell)
)

// Action is a request for a state transition. The set of implementations
// in this package is the complete vocabulary; anything else is a no-op.
type Action interface {
	Kind() ActionKind
}

// CursorPos says where the caret lands when a cell takes focus.
type CursorPos string

const (
	CursorTop     CursorPos = "top"
	CursorBottom  CursorPos = "bottom"
	CursorCurrent CursorPos = "current"
)

// InsertAbove inserts an empty cell above CellID, or at the end when
// CellID is empty or unknown.
type InsertAbove struct {
	CellID string `json:"cellId,omitempty" mapstructure:"cellId"`
}

// InsertBelow inserts an empty cell below CellID, or at the end when
// CellID is empty or unknown.
type InsertBelow struct {
	CellID string `json:"cellId,omitempty" mapstructure:"cellId"`
}

// InsertAboveFirst inserts an empty cell at the top of the document.
type InsertAboveFirst struct{}

// AddNewCell inserts an empty cell below the selected one.
type AddNewCell struct{}

// FocusCell moves focus (and selection) to CellID.
type FocusCell struct {
	CellID    string    `json:"cellId,omitempty" mapstructure:"cellId"`
	CursorPos CursorPos `json:"cursorPos,omitempty" mapstructure:"cursorPos"`
}

// UnfocusCell drops focus but keeps the selection.
type UnfocusCell struct{}

// SelectCell moves the selection to CellID without focusing it.
type SelectCell struct {
	CellID string `json:"cellId,omitempty" mapstructure:"cellId"`
}

// ExecuteCell submits Code as the new source of CellID.
type ExecuteCell struct {
	CellID string `json:"cellId" mapstructure:"cellId"`
	Code   string `json:"code" mapstructure:"code"`
}

// ExecuteAllCells submits Codes[i] for the i-th cell.
type ExecuteAllCells struct {
	Codes []string `json:"codes" mapstructure:"codes"`
}

// ToggleVariableExplorer flips the visibility of the variable explorer.
type ToggleVariableExplorer struct{}

// RefreshVariables asks the host for variables. A nil count means the
// current execution count.
type RefreshVariables struct {
	NewExecutionCount *int `json:"newExecutionCount,omitempty" mapstructure:"newExecutionCount"`
}

// EnableGather records that the gather capability is attached.
type EnableGather struct{}

// CellStarted is pushed by the host when a cell begins executing.
type CellStarted struct {
	Cell Cell `json:"cell" mapstructure:"cell"`
}

// CellUpdated is pushed by the host when a cell produces output.
type CellUpdated struct {
	Cell Cell `json:"cell" mapstructure:"cell"`
}

// CellFinished is pushed by the host when a cell completes.
type CellFinished struct {
	Cell Cell `json:"cell" mapstructure:"cell"`
}

// RawAction carries a kind that has no typed payload in the vocabulary.
// Dispatching it leaves the state unchanged.
type RawAction struct {
	Type    ActionKind     `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (InsertAbove) Kind() ActionKind            { return KindInsertAbove }
func (InsertBelow) Kind() ActionKind            { return KindInsertBelow }
func (InsertAboveFirst) Kind() ActionKind       { return KindInsertAboveFirst }
func (AddNewCell) Kind() ActionKind             { return KindAddNewCell }
func (FocusCell) Kind() ActionKind              { return KindFocusCell }
func (UnfocusCell) Kind() ActionKind            { return KindUnfocusCell }
func (SelectCell) Kind() ActionKind             { return KindSelectCell }
func (ExecuteCell) Kind() ActionKind            { return KindExecuteCell }
func (ExecuteAllCells) Kind() ActionKind        { return KindExecuteAllCells }
func (ToggleVariableExplorer) Kind() ActionKind { return KindToggleVariableExplorer }
func (RefreshVariables) Kind() ActionKind       { return KindRefreshVariables }
func (EnableGather) Kind() ActionKind           { return KindEnableGather }
func (CellStarted) Kind() ActionKind            { return KindCellStarted }
func (CellUpdated) Kind() ActionKind            { return KindCellUpdated }
func (CellFinished) Kind() ActionKind           { return KindCellFinished }
func (a RawAction) Kind() ActionKind            { return a.Type }
