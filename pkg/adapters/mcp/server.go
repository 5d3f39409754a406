// Package mcp exposes an editor as a Model Context Protocol server, so an
// agent can read the document and drive it through tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource holding the full document state.
const StateURI = "folio://state"

// Editor is the part of folio.Editor the server drives.
type Editor interface {
	DispatchMessages(ctx context.Context, action domain.Action) ([]domain.Message, error)
	State() domain.State
}

var _ Editor = (*folio.Editor)(nil)

// CellSummary is the agent facing view of a cell.
type CellSummary struct {
	ID             string           `json:"id" jsonschema_description:"Cell id"`
	Type           domain.CellType  `json:"type" jsonschema_description:"code or markdown"`
	State          domain.CellState `json:"state" jsonschema_description:"Execution state"`
	Source         string           `json:"source" jsonschema_description:"Cell text"`
	ExecutionCount *int             `json:"execution_count,omitempty"`
	Focused        bool             `json:"focused"`
	Selected       bool             `json:"selected"`
}

// Response is returned by every tool.
type Response struct {
	Cells                 []CellSummary    `json:"cells" jsonschema_description:"Cells in document order"`
	FocusedCellID         string           `json:"focused_cell_id,omitempty"`
	SelectedCellID        string           `json:"selected_cell_id,omitempty"`
	CurrentExecutionCount int              `json:"current_execution_count"`
	VariablesVisible      bool             `json:"variables_visible"`
	Messages              []domain.Message `json:"messages,omitempty" jsonschema_description:"Messages sent to the execution host by this call"`
}

// InsertArgs are the arguments of insert_cell.
type InsertArgs struct {
	Position string `json:"position"`
	CellID   string `json:"cell_id"`
}

// ExecuteArgs are the arguments of execute_cell.
type ExecuteArgs struct {
	CellID string `json:"cell_id"`
	Code   string `json:"code"`
}

// FocusArgs are the arguments of focus_cell.
type FocusArgs struct {
	CellID string `json:"cell_id"`
	Cursor string `json:"cursor"`
}

// Server wraps an Editor and exposes it as an MCP server.
type Server struct {
	editor    Editor
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(editor Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		mcpServer: server.NewMCPServer("folio-mcp", strings.TrimSpace(folio.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_cells",
		mcp.WithDescription("List the cells of the document with their state and source."),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleListCells))

	s.mcpServer.AddTool(mcp.NewTool("insert_cell",
		mcp.WithDescription("Insert an empty code cell. The new cell takes focus."),
		mcp.WithString("position",
			mcp.Description("Where to insert: above, below, first or new (below the selected cell)"),
			mcp.Enum("above", "below", "first", "new"),
		),
		mcp.WithString("cell_id", mcp.Description("Anchor cell for above/below")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleInsertCell))

	s.mcpServer.AddTool(mcp.NewTool("execute_cell",
		mcp.WithDescription("Submit code for a cell and ask the execution host to run it."),
		mcp.WithString("cell_id", mcp.Required(), mcp.Description("Cell to execute")),
		mcp.WithString("code", mcp.Description("New source; defaults to the current source")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleExecuteCell))

	s.mcpServer.AddTool(mcp.NewTool("focus_cell",
		mcp.WithDescription("Move focus and selection to a cell."),
		mcp.WithString("cell_id", mcp.Required(), mcp.Description("Cell to focus")),
		mcp.WithString("cursor", mcp.Description("Caret position: top, bottom or current")),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleFocusCell))

	s.mcpServer.AddTool(mcp.NewTool("toggle_variables",
		mcp.WithDescription("Show or hide the variable explorer. Showing it requests fresh variables."),
		mcp.WithOutputSchema[Response](),
	), mcp.NewStructuredToolHandler(s.handleToggleVariables))
}

// dispatch runs action and collects the host messages it produced.
func (s *Server) dispatch(ctx context.Context, action domain.Action) (Response, error) {
	messages, err := s.editor.DispatchMessages(ctx, action)
	if err != nil {
		return Response{}, fmt.Errorf("dispatch %s failed: %w", action.Kind(), err)
	}

	resp := summarize(s.editor.State())
	resp.Messages = messages
	return resp, nil
}

func (s *Server) handleListCells(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (Response, error) {
	return summarize(s.editor.State()), nil
}

func (s *Server) handleInsertCell(ctx context.Context, request mcp.CallToolRequest, args InsertArgs) (Response, error) {
	var action domain.Action
	switch args.Position {
	case "above":
		action = domain.InsertAbove{CellID: args.CellID}
	case "below":
		action = domain.InsertBelow{CellID: args.CellID}
	case "first":
		action = domain.InsertAboveFirst{}
	case "", "new":
		action = domain.AddNewCell{}
	default:
		return Response{}, fmt.Errorf("unknown position %q", args.Position)
	}
	return s.dispatch(ctx, action)
}

func (s *Server) handleExecuteCell(ctx context.Context, request mcp.CallToolRequest, args ExecuteArgs) (Response, error) {
	code := args.Code
	if code == "" {
		vm, ok := s.editor.State().Cell(args.CellID)
		if !ok {
			return Response{}, fmt.Errorf("cell %q not found", args.CellID)
		}
		code = vm.Cell.Data.Source.String()
	}
	return s.dispatch(ctx, domain.ExecuteCell{CellID: args.CellID, Code: code})
}

func (s *Server) handleFocusCell(ctx context.Context, request mcp.CallToolRequest, args FocusArgs) (Response, error) {
	if _, ok := s.editor.State().Cell(args.CellID); !ok {
		return Response{}, fmt.Errorf("cell %q not found", args.CellID)
	}
	cursor := domain.CursorPos(args.Cursor)
	if cursor == "" {
		cursor = domain.CursorCurrent
	}
	return s.dispatch(ctx, domain.FocusCell{CellID: args.CellID, CursorPos: cursor})
}

func (s *Server) handleToggleVariables(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (Response, error) {
	return s.dispatch(ctx, domain.ToggleVariableExplorer{})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Document State",
		mcp.WithResourceDescription("The full state of the open document"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.editor.State())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func summarize(state domain.State) Response {
	resp := Response{
		Cells:                 make([]CellSummary, 0, len(state.Cells)),
		FocusedCellID:         state.FocusedCellID,
		SelectedCellID:        state.SelectedCellID,
		CurrentExecutionCount: state.CurrentExecutionCount,
		VariablesVisible:      state.VariablesVisible,
	}
	for _, vm := range state.Cells {
		resp.Cells = append(resp.Cells, CellSummary{
			ID:             vm.Cell.ID,
			Type:           vm.Cell.Data.CellType,
			State:          vm.Cell.State,
			Source:         vm.Cell.Data.Source.String(),
			ExecutionCount: vm.Cell.Data.ExecutionCount,
			Focused:        vm.Focused,
			Selected:       vm.Selected,
		})
	}
	return resp
}
