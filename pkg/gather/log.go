package gather

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/folio/pkg/bridge"
	"github.com/aretw0/folio/pkg/domain"
)

// ExecutionLog is a GatherEngine that keeps every finished code cell in
// execution order. Gathering a cell returns the log up to its latest run.
// It performs no dependency analysis.
type ExecutionLog struct {
	mu      sync.Mutex
	entries []domain.Cell
}

// NewExecutionLog creates an empty log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{}
}

// HandleMessage records cells reported finished by the host.
func (e *ExecutionLog) HandleMessage(_ context.Context, msg domain.Message) error {
	if msg.Kind != domain.MsgFinishCell {
		return nil
	}
	cell, err := bridge.DecodeCell(msg.Payload)
	if err != nil {
		return err
	}
	e.Record(cell)
	return nil
}

// Record appends a code cell to the log.
func (e *ExecutionLog) Record(cell domain.Cell) {
	if !cell.IsCode() || cell.State == domain.CellStateError {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, cell)
}

// Len returns the number of logged executions.
func (e *ExecutionLog) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// GatherCode implements ports.GatherEngine.
func (e *ExecutionLog) GatherCode(_ context.Context, cell domain.Cell) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	last := -1
	for i, entry := range e.entries {
		if entry.ID == cell.ID {
			last = i
		}
	}

	var sb strings.Builder
	write := func(code string) {
		sb.WriteString("# %%\n")
		sb.WriteString(strings.TrimRight(code, "\n"))
		sb.WriteString("\n\n")
	}
	if last < 0 {
		for _, entry := range e.entries {
			write(entry.Data.Source.String())
		}
		write(cell.Data.Source.String())
	} else {
		for _, entry := range e.entries[:last+1] {
			write(entry.Data.Source.String())
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// ResetLog implements ports.GatherEngine.
func (e *ExecutionLog) ResetLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}
