package folio_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/adapters/nbformat"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/gather"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("cell-%d", n)
	}
}

func drain(ch <-chan domain.Message) []domain.Message {
	var out []domain.Message
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestEditor_InsertFocusesNewCell(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	require.NoError(t, ed.Dispatch(domain.InsertAboveFirst{}))

	state := ed.State()
	require.Len(t, state.Cells, 1)
	assert.Equal(t, "cell-1", state.FocusedCellID)
	assert.Equal(t, "cell-1", state.SelectedCellID)
	assert.True(t, state.Cells[0].Focused)
}

func TestEditor_ExecuteDeliversAfterCommit(t *testing.T) {
	var seen []domain.State
	var ed *folio.Editor
	sink := ports.MessageSinkFunc(func(ctx context.Context, msg domain.Message) error {
		seen = append(seen, ed.State())
		return nil
	})
	ed = folio.New(folio.WithIDGenerator(sequentialIDs()), folio.WithSink(sink))
	defer ed.Close()

	out, cancel := ed.Subscribe(8)
	defer cancel()

	require.NoError(t, ed.Dispatch(domain.InsertAboveFirst{}))
	require.NoError(t, ed.Dispatch(domain.ExecuteCell{CellID: "cell-1", Code: "print(1)"}))

	msgs := drain(out)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MsgReExecuteCell, msgs[0].Kind)
	assert.Equal(t, domain.ReExecuteCellRequest{Code: "print(1)", ID: "cell-1"}, msgs[0].Payload)

	require.Len(t, seen, 1)
	assert.Equal(t, domain.CellStateExecuting, seen[0].Cells[0].Cell.State)
}

func TestEditor_DispatchMessages(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	msgs, err := ed.DispatchMessages(context.Background(), domain.InsertAboveFirst{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = ed.DispatchMessages(context.Background(), domain.ToggleVariableExplorer{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.MsgVariableExplorerToggle, msgs[0].Kind)
	assert.Equal(t, domain.MsgGetVariablesRequest, msgs[1].Kind)
}

func TestEditor_SinkCanDispatchWithItsContext(t *testing.T) {
	var got []domain.MessageKind
	var ed *folio.Editor
	sink := ports.MessageSinkFunc(func(ctx context.Context, msg domain.Message) error {
		got = append(got, msg.Kind)
		if msg.Kind == domain.MsgReExecuteCell {
			return ed.DispatchContext(ctx, domain.ToggleVariableExplorer{})
		}
		return nil
	})
	ed = folio.New(folio.WithIDGenerator(sequentialIDs()), folio.WithSink(sink))
	defer ed.Close()

	require.NoError(t, ed.Dispatch(domain.InsertAboveFirst{}))
	require.NoError(t, ed.Dispatch(domain.ExecuteCell{CellID: "cell-1", Code: "x = 1"}))

	assert.Equal(t, []domain.MessageKind{
		domain.MsgReExecuteCell,
		domain.MsgVariableExplorerToggle,
		domain.MsgGetVariablesRequest,
	}, got)
}

func TestEditor_HandleMessageReconciles(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	payload := map[string]any{
		"cell": map[string]any{
			"id":    "host-1",
			"file":  "/tmp/a.py",
			"line":  3,
			"state": "finished",
			"data": map[string]any{
				"cell_type":       "code",
				"source":          "x = 1",
				"execution_count": 4,
			},
		},
	}
	require.NoError(t, ed.HandleMessage(context.Background(), domain.Message{Kind: domain.MsgFinishCell, Payload: payload}))

	state := ed.State()
	require.Len(t, state.Cells, 1)
	assert.Equal(t, "host-1", state.Cells[0].ID())
	assert.Equal(t, 4, state.CurrentExecutionCount)
}

func TestEditor_UnknownMessageIsNoOp(t *testing.T) {
	ed := folio.New()
	defer ed.Close()
	before := ed.State()

	require.NoError(t, ed.HandleMessage(context.Background(), domain.Message{Kind: "something_new"}))
	assert.Equal(t, before, ed.State())
}

func TestEditor_Gather(t *testing.T) {
	docs := memory.NewDocuments()
	log := gather.NewExecutionLog()
	ed := folio.New(
		folio.WithIDGenerator(sequentialIDs()),
		folio.WithGather(log, nbformat.NewExporter(), docs),
	)
	defer ed.Close()
	ctx := context.Background()

	require.NoError(t, ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgConnectedToNotebook}))
	assert.True(t, ed.State().EnableGather)

	cell := domain.Cell{
		ID:    "c1",
		File:  "/tmp/a.py",
		Line:  1,
		State: domain.CellStateFinished,
		Data:  domain.CellData{CellType: domain.CellTypeCode, Source: domain.NewSource("x = 1")},
	}
	require.NoError(t, ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgFinishCell, Payload: cell}))
	assert.Equal(t, 1, log.Len())

	require.NoError(t, ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgGatherCode, Payload: cell}))
	uris := docs.URIs()
	require.Len(t, uris, 1)

	contents, ok := docs.Get(uris[0])
	require.True(t, ok)
	var nb nbformat.Notebook
	require.NoError(t, json.Unmarshal([]byte(contents), &nb))
	require.Len(t, nb.Cells, 2)
	assert.Equal(t, "markdown", nb.Cells[0].CellType)

	require.NoError(t, ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgRestartKernel}))
	assert.Equal(t, 0, log.Len())
}

func TestEditor_GatherWithoutEngine(t *testing.T) {
	ed := folio.New(folio.WithGather(nil, nbformat.NewExporter(), memory.NewDocuments()))
	defer ed.Close()
	ctx := context.Background()

	require.NoError(t, ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgConnectedToNotebook}))
	assert.False(t, ed.State().EnableGather)

	err := ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgGatherCode, Payload: domain.NewEmptyCell("c1")})
	assert.ErrorIs(t, err, domain.ErrGatherUnavailable)
}

func TestEditor_Autosave(t *testing.T) {
	store := memory.NewStore()
	ed := folio.New(
		folio.WithIDGenerator(sequentialIDs()),
		folio.WithSnapshotStore(store, "doc"),
	)
	defer ed.Close()

	require.NoError(t, ed.Dispatch(domain.InsertAboveFirst{}))
	require.NoError(t, ed.Dispatch(domain.InsertBelow{CellID: "cell-1"}))

	saved, err := store.Load(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, saved.Cells, 2)
	assert.Equal(t, "cell-2", saved.FocusedCellID)

	reopened := folio.New(folio.WithInitialState(*saved))
	defer reopened.Close()
	assert.Equal(t, "cell-2", reopened.State().FocusedCellID)
}

func TestEditor_HooksObserveFollowUps(t *testing.T) {
	var kinds []domain.ActionKind
	var depths []int
	hooks := domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			kinds = append(kinds, e.Kind)
			depths = append(depths, e.Depth)
		},
	}
	ed := folio.New(folio.WithLifecycleHooks(hooks))
	defer ed.Close()

	require.NoError(t, ed.Dispatch(domain.InsertAboveFirst{}))
	assert.Equal(t, []domain.ActionKind{domain.KindInsertAboveFirst, domain.KindFocusCell}, kinds)
	assert.Equal(t, []int{0, 1}, depths)
}

func TestEditor_Run(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	inbound := make(chan domain.Message, 2)
	inbound <- domain.Message{Kind: domain.MessageKind(domain.KindInsertAboveFirst)}
	inbound <- domain.Message{Kind: domain.MessageKind(domain.KindToggleVariableExplorer)}
	close(inbound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ed.Run(ctx, inbound))

	state := ed.State()
	assert.Len(t, state.Cells, 1)
	assert.True(t, state.VariablesVisible)
}

func TestEditor_Close(t *testing.T) {
	ed := folio.New()
	out, _ := ed.Subscribe(1)

	require.NoError(t, ed.Close())
	require.NoError(t, ed.Close())

	_, ok := <-out
	assert.False(t, ok)
	assert.ErrorIs(t, ed.Dispatch(domain.AddNewCell{}), domain.ErrClosed)
	assert.ErrorIs(t, ed.HandleMessage(context.Background(), domain.Message{Kind: domain.MsgStartCell}), domain.ErrClosed)
}
