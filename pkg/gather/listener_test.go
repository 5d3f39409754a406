package gather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	cells []domain.Cell
	err   error
}

func (f *fakeExporter) TranslateToNotebook(_ context.Context, cells []domain.Cell) (any, error) {
	f.cells = cells
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"cells": len(cells)}, nil
}

type fakeDocs struct {
	opened map[string]string
	next   int
}

func (f *fakeDocs) NextNewURI(context.Context) (string, error) {
	f.next++
	return fmt.Sprintf("Untitled-%d.ipynb", f.next), nil
}

func (f *fakeDocs) Open(_ context.Context, uri, contents string) error {
	if f.opened == nil {
		f.opened = map[string]string{}
	}
	f.opened[uri] = contents
	return nil
}

func codeCell(id, src string) domain.Cell {
	c := domain.NewEmptyCell(id)
	c.Data.Source = domain.NewSource(src)
	return c
}

func ids() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("g%d", n)
	}
}

func TestListener_GatherCode(t *testing.T) {
	log := NewExecutionLog()
	log.Record(codeCell("a", "import math\n"))
	log.Record(codeCell("b", "x = math.pi"))
	log.Record(codeCell("c", "print(x)"))
	exporter := &fakeExporter{}
	docs := &fakeDocs{}
	l := NewListener(log, exporter, docs, WithIDGenerator(ids()))

	uri, err := l.GatherCode(context.Background(), codeCell("b", "x = math.pi"))
	require.NoError(t, err)
	assert.Equal(t, "Untitled-1.ipynb", uri)

	require.Len(t, exporter.cells, 3)
	assert.Equal(t, domain.CellTypeMarkdown, exporter.cells[0].Data.CellType)
	assert.Equal(t, Description, exporter.cells[0].Data.Source.String())
	assert.Equal(t, "import math", exporter.cells[1].Data.Source.String())
	assert.Equal(t, "x = math.pi", exporter.cells[2].Data.Source.String())

	var notebook map[string]any
	require.NoError(t, json.Unmarshal([]byte(docs.opened[uri]), &notebook))
	assert.EqualValues(t, 3, notebook["cells"])
}

func TestListener_Messages(t *testing.T) {
	log := NewExecutionLog()
	var dispatched []domain.Action
	l := NewListener(log, &fakeExporter{}, &fakeDocs{}, WithDispatcher(func(_ context.Context, a domain.Action) {
		dispatched = append(dispatched, a)
	}))
	ctx := context.Background()

	require.NoError(t, l.HandleMessage(ctx, domain.Message{Kind: domain.MsgConnectedToNotebook}))
	assert.Equal(t, []domain.Action{domain.EnableGather{}}, dispatched)

	require.NoError(t, log.HandleMessage(ctx, domain.Message{Kind: domain.MsgFinishCell, Payload: codeCell("a", "x = 1")}))
	assert.Equal(t, 1, log.Len())

	require.NoError(t, l.HandleMessage(ctx, domain.Message{Kind: domain.MsgRestartKernel}))
	assert.Zero(t, log.Len())

	require.NoError(t, l.HandleMessage(ctx, domain.Message{Kind: domain.MsgReExecuteCell}))
}

func TestListener_GatherCodeMessage(t *testing.T) {
	docs := &fakeDocs{}
	l := NewListener(NewExecutionLog(), &fakeExporter{}, docs)

	err := l.HandleMessage(context.Background(), domain.Message{
		Kind: domain.MsgGatherCode,
		Payload: map[string]any{
			"id":   "c1",
			"data": map[string]any{"cell_type": "code", "source": "y = 2"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, docs.opened, 1)
}

func TestListener_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewListener(nil, &fakeExporter{}, &fakeDocs{}).GatherCode(ctx, codeCell("a", "x"))
	assert.ErrorIs(t, err, domain.ErrGatherUnavailable)

	boom := errors.New("boom")
	docs := &fakeDocs{}
	_, err = NewListener(NewExecutionLog(), &fakeExporter{err: boom}, docs).GatherCode(ctx, codeCell("a", "x"))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, docs.opened)

	var dispatched int
	l := NewListener(nil, nil, nil, WithDispatcher(func(context.Context, domain.Action) { dispatched++ }))
	require.NoError(t, l.HandleMessage(ctx, domain.Message{Kind: domain.MsgConnectedToNotebook}))
	assert.Zero(t, dispatched)
}

func TestExecutionLog_UnknownCellAppendsItself(t *testing.T) {
	log := NewExecutionLog()
	log.Record(codeCell("a", "x = 1"))
	md := codeCell("m", "notes")
	md.Data.CellType = domain.CellTypeMarkdown
	log.Record(md)

	code, err := log.GatherCode(context.Background(), codeCell("z", "print(x)"))
	require.NoError(t, err)
	assert.Equal(t, "# %%\nx = 1\n\n# %%\nprint(x)\n", code)
}
