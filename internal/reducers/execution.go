package reducers

import (
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
)

// submit applies code to the cell at index. It reports false when the
// index is out of range or code is nothing but a cell marker.
func (r *Reducers) submit(cells []domain.CellViewModel, index int, code string) bool {
	if index < 0 || index >= len(cells) {
		return false
	}
	if code == "" || len(r.matcher.StripFirstMarker(code)) == 0 {
		return false
	}

	vm := cells[index]
	vm.InputBlockText = code
	vm.Cell.Data.Source = domain.NewSource(code)
	if vm.Cell.IsCode() {
		vm.Cell.State = domain.CellStateExecuting
		vm.Cell.Data.Outputs = []map[string]any{}
	}
	cells[index] = vm
	return true
}

func (r *Reducers) executeCell(s domain.State, a domain.ExecuteCell, _ runtime.QueueFunc) domain.State {
	cells := s.CloneCells()
	if !r.submit(cells, s.IndexOf(a.CellID), a.Code) {
		return s
	}
	s.Cells = cells

	r.post(domain.MsgReExecuteCell, domain.ReExecuteCellRequest{Code: a.Code, ID: a.CellID})
	return s
}

// executeAllCells resubmits codes[i] to cells[i] in one transition and then
// asks the host to run every code cell in document order.
func (r *Reducers) executeAllCells(s domain.State, a domain.ExecuteAllCells, _ runtime.QueueFunc) domain.State {
	if len(a.Codes) == 0 {
		return s
	}
	cells := s.CloneCells()
	for i, code := range a.Codes {
		r.submit(cells, i, code)
	}
	s.Cells = cells

	for _, vm := range s.Cells {
		if !vm.Cell.IsCode() {
			continue
		}
		r.post(domain.MsgReExecuteCell, domain.ReExecuteCellRequest{
			Code: vm.Cell.Data.Source.String(),
			ID:   vm.ID(),
		})
	}
	return s
}
