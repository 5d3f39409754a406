package reducers

import (
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
)

// focusCell moves focus and selection together. The previous holder is
// cleared before the new one is set so that refocusing a cell keeps it
// focused.
func focusCell(s domain.State, a domain.FocusCell, _ runtime.QueueFunc) domain.State {
	cells := s.CloneCells()

	prev := s.IndexOf(s.FocusedCellID)
	if prev < 0 {
		prev = s.IndexOf(s.SelectedCellID)
	}
	if prev >= 0 {
		cells[prev].Focused = false
		cells[prev].Selected = false
	}
	if next := s.IndexOf(a.CellID); next >= 0 {
		cells[next].Focused = true
		cells[next].Selected = true
	}

	s.Cells = cells
	s.FocusedCellID = a.CellID
	s.SelectedCellID = a.CellID
	return s
}

func unfocusCell(s domain.State, _ domain.UnfocusCell, _ runtime.QueueFunc) domain.State {
	cells := s.CloneCells()
	if i := s.IndexOf(s.FocusedCellID); i >= 0 {
		cells[i].Focused = false
	}
	s.Cells = cells
	s.FocusedCellID = ""
	return s
}

// selectCell moves the selection without giving focus. A focused cell that
// loses the selection loses its focus too.
func selectCell(s domain.State, a domain.SelectCell, _ runtime.QueueFunc) domain.State {
	cells := s.CloneCells()
	for _, id := range []string{s.FocusedCellID, s.SelectedCellID} {
		if i := s.IndexOf(id); i >= 0 {
			cells[i].Focused = false
			cells[i].Selected = false
		}
	}
	if i := s.IndexOf(a.CellID); i >= 0 {
		cells[i].Selected = true
	}
	s.Cells = cells
	s.FocusedCellID = ""
	s.SelectedCellID = a.CellID
	return s
}
