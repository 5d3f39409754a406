package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/folio/pkg/adapters/sqlite"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	defer store.Close()

	ports.RunStateStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	state := domain.NewState(false, "vscode-dark", false)
	state.CurrentExecutionCount = 7
	require.NoError(t, store.Save(ctx, "doc", &state))
	state.CurrentExecutionCount = 8
	require.NoError(t, store.Save(ctx, "doc", &state))
	require.NoError(t, store.Close())

	// Migrations are idempotent.
	again, err := sqlite.Open(path)
	require.NoError(t, err)
	defer again.Close()

	loaded, err := again.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.CurrentExecutionCount)
	assert.Equal(t, "vscode-dark", loaded.BaseTheme)

	ids, err := again.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, ids)
}
