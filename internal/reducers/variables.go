package reducers

import (
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
)

func (r *Reducers) refreshVariables(s domain.State, a domain.RefreshVariables, _ runtime.QueueFunc) domain.State {
	count := s.CurrentExecutionCount
	if a.NewExecutionCount != nil {
		count = *a.NewExecutionCount
	}
	r.post(domain.MsgGetVariablesRequest, domain.GetVariablesRequest{ExecutionCount: count})
	return s
}

func (r *Reducers) toggleVariableExplorer(s domain.State, _ domain.ToggleVariableExplorer, queue runtime.QueueFunc) domain.State {
	s.VariablesVisible = !s.VariablesVisible
	r.post(domain.MsgVariableExplorerToggle, domain.VariableExplorerToggle{Visible: s.VariablesVisible})

	if s.VariablesVisible {
		return r.refreshVariables(s, domain.RefreshVariables{}, queue)
	}
	return s
}
