// Package gather turns the code that produced a cell into a new notebook.
//
// The Listener watches host messages: it enables the gather capability when
// a notebook connects, clears the execution log on kernel restart, and on
// request gathers a cell into a freshly opened document.
package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/folio/internal/cellmatch"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/bridge"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/google/uuid"
)

// Description is the markdown cell placed at the top of every gathered notebook.
const Description = "## Gathered Notebook\n" +
	"This notebook holds the minimal code needed to reproduce the selected cell.\n" +
	"Run it top to bottom to get the same result."

// Listener reacts to gather related host messages.
type Listener struct {
	engine   ports.GatherEngine
	exporter ports.NotebookExporter
	docs     ports.DocumentProvider

	dispatch func(context.Context, domain.Action)
	matcher  *cellmatch.Matcher
	newID    func() string
	logger   *slog.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithDispatcher sets where EnableGather is sent when a notebook connects.
// fn receives the context of the message that triggered it.
func WithDispatcher(fn func(context.Context, domain.Action)) Option {
	return func(l *Listener) {
		l.dispatch = fn
	}
}

// WithMatcher sets the marker rules used to split gathered code into cells.
func WithMatcher(m *cellmatch.Matcher) Option {
	return func(l *Listener) {
		l.matcher = m
	}
}

// WithIDGenerator overrides how ids of gathered cells are produced.
func WithIDGenerator(fn func() string) Option {
	return func(l *Listener) {
		l.newID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a listener. engine may be nil, in which case gather
// requests fail with domain.ErrGatherUnavailable.
func NewListener(engine ports.GatherEngine, exporter ports.NotebookExporter, docs ports.DocumentProvider, opts ...Option) *Listener {
	l := &Listener{
		engine:   engine,
		exporter: exporter,
		docs:     docs,
		dispatch: func(context.Context, domain.Action) {},
		matcher:  cellmatch.Default(),
		newID:    uuid.NewString,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// HandleMessage implements ports.Listener. Kinds it does not care about
// are ignored.
func (l *Listener) HandleMessage(ctx context.Context, msg domain.Message) error {
	switch msg.Kind {
	case domain.MsgConnectedToNotebook:
		if l.engine != nil {
			l.dispatch(ctx, domain.EnableGather{})
		}
	case domain.MsgRestartKernel:
		if l.engine != nil {
			l.engine.ResetLog()
		}
	case domain.MsgGatherCode:
		if msg.Payload == nil {
			return nil
		}
		cell, err := bridge.DecodeCell(msg.Payload)
		if err != nil {
			return err
		}
		if _, err := l.GatherCode(ctx, cell); err != nil {
			return err
		}
	}
	return nil
}

// GatherCode gathers the code behind cell and opens it as a new notebook.
// It returns the location of the new document.
func (l *Listener) GatherCode(ctx context.Context, cell domain.Cell) (string, error) {
	if l.engine == nil || l.exporter == nil || l.docs == nil {
		return "", domain.ErrGatherUnavailable
	}

	program, err := l.engine.GatherCode(ctx, cell)
	if err != nil {
		return "", fmt.Errorf("failed to gather cell %s: %w", cell.ID, err)
	}

	uri, err := l.docs.NextNewURI(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to allocate document: %w", err)
	}

	cells := []domain.Cell{{
		ID:    l.newID(),
		State: domain.CellStateNotSubmitted,
		Data: domain.CellData{
			CellType: domain.CellTypeMarkdown,
			Source:   domain.NewSource(Description),
			Metadata: map[string]any{},
		},
	}}
	cells = append(cells, l.matcher.SplitCells(program, l.newID)...)

	notebook, err := l.exporter.TranslateToNotebook(ctx, cells)
	if err != nil {
		return "", fmt.Errorf("failed to export gathered cells: %w", err)
	}
	contents, err := json.Marshal(notebook)
	if err != nil {
		return "", fmt.Errorf("failed to encode notebook: %w", err)
	}

	if err := l.docs.Open(ctx, uri, string(contents)); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", uri, err)
	}

	l.logger.Info("gathered cell", "cell_id", cell.ID, "uri", uri, "cells", len(cells))
	return uri, nil
}
