// Package reducers holds the case reducers of the editor store.
package reducers

import (
	"log/slog"

	"github.com/aretw0/folio/internal/cellmatch"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/google/uuid"
)

// Poster accepts outbound messages for the execution host. Implementations
// must not deliver synchronously: reducers post while the store is busy.
type Poster interface {
	Post(msg domain.Message)
}

// Reducers binds the case reducers to their collaborators.
type Reducers struct {
	poster  Poster
	matcher *cellmatch.Matcher
	newID   func() string
	logger  *slog.Logger
}

// Option configures Reducers.
type Option func(*Reducers)

// WithMatcher overrides the default cell marker rules.
func WithMatcher(m *cellmatch.Matcher) Option {
	return func(r *Reducers) {
		r.matcher = m
	}
}

// WithIDGenerator overrides how new cell ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(r *Reducers) {
		r.newID = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reducers) {
		r.logger = logger
	}
}

// New creates the reducer set. poster receives every outbound message.
func New(poster Poster, opts ...Option) *Reducers {
	r := &Reducers{
		poster:  poster,
		matcher: cellmatch.Default(),
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Map returns the case reducer for every action kind the editor handles.
func (r *Reducers) Map() runtime.CaseMap {
	return runtime.CaseMap{
		domain.KindInsertAbove:            runtime.Case(r.insertAbove),
		domain.KindInsertBelow:            runtime.Case(r.insertBelow),
		domain.KindInsertAboveFirst:       runtime.Case(r.insertAboveFirst),
		domain.KindAddNewCell:             runtime.Case(r.addNewCell),
		domain.KindFocusCell:              runtime.Case(focusCell),
		domain.KindUnfocusCell:            runtime.Case(unfocusCell),
		domain.KindSelectCell:             runtime.Case(selectCell),
		domain.KindExecuteCell:            runtime.Case(r.executeCell),
		domain.KindExecuteAllCells:        runtime.Case(r.executeAllCells),
		domain.KindToggleVariableExplorer: runtime.Case(r.toggleVariableExplorer),
		domain.KindRefreshVariables:       runtime.Case(r.refreshVariables),
		domain.KindEnableGather:           runtime.Case(enableGather),
		domain.KindCellStarted: runtime.Case(func(s domain.State, a domain.CellStarted, q runtime.QueueFunc) domain.State {
			return r.reconcile(s, a.Cell, q)
		}),
		domain.KindCellUpdated: runtime.Case(func(s domain.State, a domain.CellUpdated, q runtime.QueueFunc) domain.State {
			return r.reconcile(s, a.Cell, q)
		}),
		domain.KindCellFinished: runtime.Case(func(s domain.State, a domain.CellFinished, q runtime.QueueFunc) domain.State {
			return r.reconcile(s, a.Cell, q)
		}),
	}
}

// Reducer returns the root reducer.
func (r *Reducers) Reducer() runtime.Reducer {
	return runtime.Combine(r.Map())
}

func (r *Reducers) post(kind domain.MessageKind, payload any) {
	if r.poster == nil {
		return
	}
	r.poster.Post(domain.Message{Kind: kind, Payload: payload})
}

// prepareCellVM wraps a cell the way the editor shows new cells: editable,
// with the input block open and filled from the source.
func (r *Reducers) prepareCellVM(cell domain.Cell) domain.CellViewModel {
	text := cell.Data.Source.String()
	if cell.IsCode() {
		text = r.matcher.StripFirstMarker(text)
	}
	return domain.CellViewModel{
		Cell:           cell,
		Editable:       true,
		InputBlockOpen: true,
		InputBlockText: text,
	}
}

func enableGather(s domain.State, _ domain.EnableGather, _ runtime.QueueFunc) domain.State {
	s.EnableGather = true
	return s
}
