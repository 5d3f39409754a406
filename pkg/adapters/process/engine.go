// Package process implements gather by running an external command.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/aretw0/folio/pkg/bridge"
	"github.com/aretw0/folio/pkg/domain"
)

// Request is written as JSON to the command's stdin.
type Request struct {
	// Cell is the cell to gather.
	Cell domain.Cell `json:"cell"`
	// History is every code cell the host reported finished, oldest first.
	History []domain.Cell `json:"history"`
}

// Engine implements ports.GatherEngine. The command receives a Request on
// stdin and must print the gathered script on stdout.
type Engine struct {
	command string
	args    []string
	dir     string

	mu      sync.Mutex
	history []domain.Cell
}

// Option configures an Engine.
type Option func(*Engine)

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(e *Engine) {
		e.dir = dir
	}
}

// NewEngine creates an engine running command with args.
func NewEngine(command string, args []string, opts ...Option) *Engine {
	e := &Engine{command: command, args: args}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage records finished code cells into the history.
func (e *Engine) HandleMessage(_ context.Context, msg domain.Message) error {
	if msg.Kind != domain.MsgFinishCell {
		return nil
	}
	cell, err := bridge.DecodeCell(msg.Payload)
	if err != nil {
		return err
	}
	if cell.IsCode() {
		e.mu.Lock()
		e.history = append(e.history, cell)
		e.mu.Unlock()
	}
	return nil
}

// GatherCode implements ports.GatherEngine.
func (e *Engine) GatherCode(ctx context.Context, cell domain.Cell) (string, error) {
	e.mu.Lock()
	req := Request{Cell: cell, History: append([]domain.Cell{}, e.history...)}
	e.mu.Unlock()

	input, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode gather request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Dir = e.dir
	cmd.Env = append(cmd.Environ(), "FOLIO_CELL_ID="+cell.ID)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("gather command failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ResetLog implements ports.GatherEngine.
func (e *Engine) ResetLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}
