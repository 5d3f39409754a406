package reducers

import (
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
)

func (r *Reducers) insertAbove(s domain.State, a domain.InsertAbove, queue runtime.QueueFunc) domain.State {
	return r.insertAt(s, a.CellID, 0, queue)
}

func (r *Reducers) insertBelow(s domain.State, a domain.InsertBelow, queue runtime.QueueFunc) domain.State {
	return r.insertAt(s, a.CellID, 1, queue)
}

func (r *Reducers) insertAboveFirst(s domain.State, _ domain.InsertAboveFirst, queue runtime.QueueFunc) domain.State {
	var first string
	if len(s.Cells) > 0 {
		first = s.Cells[0].ID()
	}
	return r.insertAbove(s, domain.InsertAbove{CellID: first}, queue)
}

func (r *Reducers) addNewCell(s domain.State, _ domain.AddNewCell, queue runtime.QueueFunc) domain.State {
	return r.insertBelow(s, domain.InsertBelow{CellID: s.SelectedCellID}, queue)
}

// insertAt splices a fresh empty cell at the index of anchor plus offset,
// or at the end when anchor is not in the document, then queues its focus.
func (r *Reducers) insertAt(s domain.State, anchor string, offset int, queue runtime.QueueFunc) domain.State {
	vm := r.prepareCellVM(domain.NewEmptyCell(r.newID()))

	cells := make([]domain.CellViewModel, 0, len(s.Cells)+1)
	pos := s.IndexOf(anchor)
	if pos < 0 {
		cells = append(cells, s.Cells...)
		cells = append(cells, vm)
	} else {
		at := pos + offset
		cells = append(cells, s.Cells[:at]...)
		cells = append(cells, vm)
		cells = append(cells, s.Cells[at:]...)
	}
	s.Cells = cells

	queue(domain.FocusCell{CellID: vm.ID(), CursorPos: domain.CursorTop})
	return s
}
