package domain

import (
	"reflect"
)

// StateDiff represents the changes between two document states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// DocumentID is always present to identify the target.
	DocumentID string `json:"document_id"`

	// Changed holds cells that were added or modified.
	Changed []CellViewModel `json:"changed,omitempty"`

	// Removed holds ids of cells that are gone.
	Removed []string `json:"removed,omitempty"`

	// Order is the full id order, sent only when it changed.
	Order []string `json:"order,omitempty"`

	FocusedCellID         *string `json:"focused_cell_id,omitempty"`
	SelectedCellID        *string `json:"selected_cell_id,omitempty"`
	CurrentExecutionCount *int    `json:"current_execution_count,omitempty"`
	VariablesVisible      *bool   `json:"variables_visible,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(documentID string, oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{DocumentID: documentID}

	if oldState == nil {
		oldState = &State{}
		diff.FocusedCellID = &newState.FocusedCellID
		diff.SelectedCellID = &newState.SelectedCellID
		diff.CurrentExecutionCount = &newState.CurrentExecutionCount
		diff.VariablesVisible = &newState.VariablesVisible
	} else {
		if oldState.FocusedCellID != newState.FocusedCellID {
			diff.FocusedCellID = &newState.FocusedCellID
		}
		if oldState.SelectedCellID != newState.SelectedCellID {
			diff.SelectedCellID = &newState.SelectedCellID
		}
		if oldState.CurrentExecutionCount != newState.CurrentExecutionCount {
			diff.CurrentExecutionCount = &newState.CurrentExecutionCount
		}
		if oldState.VariablesVisible != newState.VariablesVisible {
			diff.VariablesVisible = &newState.VariablesVisible
		}
	}

	diff.Changed, diff.Removed = diffCells(oldState.Cells, newState.Cells)
	if !sameOrder(oldState.Cells, newState.Cells) {
		diff.Order = cellOrder(newState.Cells)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffCells(old, new []CellViewModel) ([]CellViewModel, []string) {
	before := make(map[string]CellViewModel, len(old))
	for _, vm := range old {
		before[vm.Cell.ID] = vm
	}

	var changed []CellViewModel
	seen := make(map[string]bool, len(new))
	for _, vm := range new {
		seen[vm.Cell.ID] = true
		prev, ok := before[vm.Cell.ID]
		if !ok || !reflect.DeepEqual(prev, vm) {
			changed = append(changed, vm)
		}
	}

	var removed []string
	for _, vm := range old {
		if !seen[vm.Cell.ID] {
			removed = append(removed, vm.Cell.ID)
		}
	}
	return changed, removed
}

func sameOrder(old, new []CellViewModel) bool {
	if len(old) != len(new) {
		return false
	}
	for i := range old {
		if old[i].Cell.ID != new[i].Cell.ID {
			return false
		}
	}
	return true
}

func cellOrder(cells []CellViewModel) []string {
	ids := make([]string, len(cells))
	for i, vm := range cells {
		ids[i] = vm.Cell.ID
	}
	return ids
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Changed) == 0 &&
		len(d.Removed) == 0 &&
		d.Order == nil &&
		d.FocusedCellID == nil &&
		d.SelectedCellID == nil &&
		d.CurrentExecutionCount == nil &&
		d.VariablesVisible == nil
}
