package bridge

import (
	"fmt"
	"reflect"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var factories = map[domain.ActionKind]func() any{
	domain.KindInsertAbove:            func() any { return &domain.InsertAbove{} },
	domain.KindInsertBelow:            func() any { return &domain.InsertBelow{} },
	domain.KindInsertAboveFirst:       func() any { return &domain.InsertAboveFirst{} },
	domain.KindAddNewCell:             func() any { return &domain.AddNewCell{} },
	domain.KindFocusCell:              func() any { return &domain.FocusCell{} },
	domain.KindUnfocusCell:            func() any { return &domain.UnfocusCell{} },
	domain.KindSelectCell:             func() any { return &domain.SelectCell{} },
	domain.KindExecuteCell:            func() any { return &domain.ExecuteCell{} },
	domain.KindExecuteAllCells:        func() any { return &domain.ExecuteAllCells{} },
	domain.KindToggleVariableExplorer: func() any { return &domain.ToggleVariableExplorer{} },
	domain.KindRefreshVariables:       func() any { return &domain.RefreshVariables{} },
	domain.KindEnableGather:           func() any { return &domain.EnableGather{} },
	domain.KindCellStarted:            func() any { return &domain.CellStarted{} },
	domain.KindCellUpdated:            func() any { return &domain.CellUpdated{} },
	domain.KindCellFinished:           func() any { return &domain.CellFinished{} },
}

// Known reports whether kind has a typed action.
func Known(kind domain.ActionKind) bool {
	_, ok := factories[kind]
	return ok
}

// Decode turns a kind and a loosely typed payload (usually decoded JSON)
// into an action. Kinds without a typed action come back as RawAction,
// which the store ignores.
func Decode(kind domain.ActionKind, payload any) (domain.Action, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: missing kind", domain.ErrInvalidPayload)
	}
	if a, ok := payload.(domain.Action); ok && a.Kind() == kind {
		return a, nil
	}

	factory, ok := factories[kind]
	if !ok {
		raw, _ := payload.(map[string]any)
		return domain.RawAction{Type: kind, Payload: raw}, nil
	}

	target := factory()
	if payload != nil {
		if isCellNotification(kind) {
			payload = wrapCell(payload)
		}
		if err := decodeInto(payload, target); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidPayload, kind, err)
		}
	}
	return reflect.ValueOf(target).Elem().Interface().(domain.Action), nil
}

// DecodeMessage turns an inbound host message into the action it carries.
func DecodeMessage(msg domain.Message) (domain.Action, error) {
	return Decode(domain.ActionKind(msg.Kind), msg.Payload)
}

func isCellNotification(kind domain.ActionKind) bool {
	switch kind {
	case domain.KindCellStarted, domain.KindCellUpdated, domain.KindCellFinished:
		return true
	}
	return false
}

// wrapCell accepts both {"cell": {...}} and a bare cell.
func wrapCell(payload any) any {
	switch p := payload.(type) {
	case map[string]any:
		if _, ok := p["cell"]; ok {
			return p
		}
		return map[string]any{"cell": p}
	case domain.Cell:
		return map[string]any{"cell": p}
	}
	return payload
}

var sourceType = reflect.TypeOf(domain.Source{})

// sourceHook lets a cell source arrive as a single string.
func sourceHook(from, to reflect.Type, data any) (any, error) {
	if to != sourceType || from.Kind() != reflect.String {
		return data, nil
	}
	return domain.NewSource(data.(string)), nil
}

func decodeInto(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: sourceHook,
		Result:     target,
		TagName:    "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// DecodeCell reads a cell from a loosely typed payload, either bare or
// wrapped as {"cell": ...}.
func DecodeCell(payload any) (domain.Cell, error) {
	if cell, ok := payload.(domain.Cell); ok {
		return cell, nil
	}
	var holder struct {
		Cell domain.Cell `mapstructure:"cell"`
	}
	if err := decodeInto(wrapCell(payload), &holder); err != nil {
		return domain.Cell{}, fmt.Errorf("%w: cell: %v", domain.ErrInvalidPayload, err)
	}
	return holder.Cell, nil
}
