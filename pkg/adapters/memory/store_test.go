package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	state := domain.NewState(false, "", false)
	state.Cells = []domain.CellViewModel{{Cell: domain.NewEmptyCell("c1")}}
	require.NoError(t, store.Save(ctx, "s", &state))

	state.Cells[0].Focused = true
	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.False(t, loaded.Cells[0].Focused)

	loaded.Cells[0].Selected = true
	again, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.False(t, again.Cells[0].Selected)
}

func TestDocuments(t *testing.T) {
	docs := memory.NewDocuments()
	ctx := context.Background()

	first, err := docs.NextNewURI(ctx)
	require.NoError(t, err)
	require.NoError(t, docs.Open(ctx, first, "{}"))
	second, err := docs.NextNewURI(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	contents, ok := docs.Get(first)
	assert.True(t, ok)
	assert.Equal(t, "{}", contents)
	assert.Equal(t, []string{first}, docs.URIs())
}
