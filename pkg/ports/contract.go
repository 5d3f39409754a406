package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newState := func() *domain.State {
		st := domain.NewState(false, "vscode-dark", false)
		return &st
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := newState()
		count := 3
		cell := domain.NewEmptyCell("c1")
		cell.Data.Source = domain.Source{"x = 1\n", "y = 2"}
		cell.Data.ExecutionCount = &count
		state.Cells = []domain.CellViewModel{{Cell: cell, Focused: true, Selected: true, InputBlockText: "x = 1\ny = 2 # edited"}}
		state.FocusedCellID = "c1"
		state.SelectedCellID = "c1"
		state.CurrentExecutionCount = 3

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Cells, 1)
		assert.Equal(t, "c1", loaded.FocusedCellID)
		assert.Equal(t, 3, loaded.CurrentExecutionCount)
		assert.Equal(t, "x = 1\ny = 2", loaded.Cells[0].Cell.Data.Source.String())
		assert.Equal(t, "x = 1\ny = 2 # edited", loaded.Cells[0].InputBlockText)
		require.NotNil(t, loaded.Cells[0].Cell.Data.ExecutionCount)
		assert.Equal(t, 3, *loaded.Cells[0].Cell.Data.ExecutionCount)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newState())
		_ = store.Save(ctx, id2, newState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
