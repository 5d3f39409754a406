package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/persistence/middleware"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleState() *domain.State {
	s := domain.NewState(false, "vscode-dark", false)
	cell := domain.NewEmptyCell("c1")
	cell.Data.Source = domain.NewSource("api_token = 'abc'")
	s.Cells = []domain.CellViewModel{{Cell: cell, Focused: true}}
	s.FocusedCellID = "c1"
	s.Variables = []domain.Variable{
		{Name: "api_token", Type: "str", Value: "abc"},
		{Name: "rows", Type: "int", Value: "3"},
	}
	s.EditorOptions = map[string]any{
		"fontLigatures": true,
		"remote":        map[string]any{"password": "hunter2", "host": "example"},
	}
	return &s
}

func TestEncryption_Roundtrip(t *testing.T) {
	inner := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := mw(inner)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc", sampleState()))

	raw, err := inner.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, raw.Cells)
	assert.Empty(t, raw.Variables)
	assert.Contains(t, raw.EditorOptions, "__encrypted__")

	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "c1", loaded.FocusedCellID)
	assert.Equal(t, "api_token = 'abc'", loaded.Cells[0].Cell.Data.Source.String())
	assert.Equal(t, "abc", loaded.Variables[0].Value)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, ids)
}

func TestEncryption_KeyRotation(t *testing.T) {
	inner := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldMW, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, oldMW(inner).Save(ctx, "doc", sampleState()))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	loaded, err := rotated(inner).Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "c1", loaded.FocusedCellID)

	onlyNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	require.NoError(t, err)
	_, err = onlyNew(inner).Load(ctx, "doc")
	assert.Error(t, err)
}

func TestEncryption_RejectsPlainState(t *testing.T) {
	inner := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, inner.Save(ctx, "doc", sampleState()))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(inner).Load(ctx, "doc")
	assert.Error(t, err)
}

func TestEncryption_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestRedaction(t *testing.T) {
	inner := memory.NewStore()
	mw, err := middleware.NewRedactionMiddleware([]string{"(?i)token", "(?i)password"})
	require.NoError(t, err)
	store := mw(inner)
	ctx := context.Background()

	original := sampleState()
	require.NoError(t, store.Save(ctx, "doc", original))

	saved, err := inner.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, saved.Variables[0].Value)
	assert.Equal(t, "3", saved.Variables[1].Value)
	remote := saved.EditorOptions["remote"].(map[string]any)
	assert.Equal(t, middleware.Mask, remote["password"])
	assert.Equal(t, "example", remote["host"])

	// The caller's state is untouched.
	assert.Equal(t, "abc", original.Variables[0].Value)
	assert.Equal(t, "hunter2", original.EditorOptions["remote"].(map[string]any)["password"])
}

func TestChain(t *testing.T) {
	inner := memory.NewStore()
	redact, err := middleware.NewRedactionMiddleware([]string{"token"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	var store ports.StateStore = middleware.Chain(inner, redact, encrypt)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "doc", sampleState()))

	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Variables[0].Value)
}

func TestRedaction_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_Contract(t *testing.T) {
	redact, err := middleware.NewRedactionMiddleware([]string{"password"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	ports.RunStateStoreContract(t, middleware.Chain(memory.NewStore(), redact, encrypt))
}
