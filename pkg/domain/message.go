package domain

// MessageKind names a message exchanged with the execution host.
type MessageKind string

// Outbound kinds.
const (
	MsgReExecuteCell          MessageKind = "reexecute_cell"
	MsgGetVariablesRequest    MessageKind = "get_variables_request"
	MsgVariableExplorerToggle MessageKind = "variable_explorer_toggle"
)

// Inbound kinds.
const (
	MsgStartCell           MessageKind = "start_cell"
	MsgUpdateCell          MessageKind = "update_cell"
	MsgFinishCell          MessageKind = "finish_cell"
	MsgConnectedToNotebook MessageKind = "connected_to_notebook"
	MsgRestartKernel       MessageKind = "restart_kernel"
	MsgGatherCode          MessageKind = "gather_code"
)

// Message is one unit on the host channel. Payload must be JSON-serializable.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Payload any         `json:"payload,omitempty"`
}

// ReExecuteCellRequest asks the host to run Code for cell ID.
type ReExecuteCellRequest struct {
	Code string `json:"code" mapstructure:"code"`
	ID   string `json:"id" mapstructure:"id"`
}

// GetVariablesRequest asks the host for the variables as of ExecutionCount.
type GetVariablesRequest struct {
	ExecutionCount int `json:"executionCount" mapstructure:"executionCount"`
}

// VariableExplorerToggle tells the host whether the explorer is showing.
type VariableExplorerToggle struct {
	Visible bool `json:"visible" mapstructure:"visible"`
}
