package reducers

import (
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
)

// reconcile merges a cell pushed by the host into the document.
//
// Cells are matched on id, line and file. A match whose state changed
// takes the new state and data but keeps its own source, since the local
// copy may hold edits the host has not seen. A match with the same state is
// replaced by the pushed cell. Anything else is appended.
func (r *Reducers) reconcile(s domain.State, cell domain.Cell, queue runtime.QueueFunc) domain.State {
	if ec := cell.Data.ExecutionCount; ec != nil && *ec > s.CurrentExecutionCount {
		s.CurrentExecutionCount = *ec
		if s.VariablesVisible {
			count := *ec
			queue(domain.RefreshVariables{NewExecutionCount: &count})
		}
	}

	cells := s.CloneCells()
	index := -1
	for i, vm := range cells {
		if vm.Cell.SameOrigin(cell) {
			index = i
			break
		}
	}

	switch {
	case index >= 0 && cells[index].Cell.State != cell.State:
		existing := cells[index].Cell
		data := cell.Data
		data.Source = existing.Data.Source
		existing.State = cell.State
		existing.Data = data
		cells[index].Cell = existing
	case index >= 0:
		cells[index].Cell = cell
	default:
		// Ids stay unique: a known id pushed from a new position takes over
		// the slot instead of being appended a second time.
		if i := s.IndexOf(cell.ID); i >= 0 {
			r.logger.Debug("cell moved", "cell_id", cell.ID, "line", cell.Line, "file", cell.File)
			cells[i].Cell = cell
		} else {
			cells = append(cells, r.prepareCellVM(cell))
		}
	}

	s.Cells = cells
	return s
}
