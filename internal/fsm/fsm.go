// Package fsm implements the guarded state machine that drives data
// collection for a homologation case.
package fsm

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// DefaultMaxRetries bounds repeated invalid input at a single step before the
// condition is surfaced to the caller as an escalation signal.
const DefaultMaxRetries = 3

// transitions is the static table of legal edges. The cancel edge to
// StepIdle is legal from every state and handled separately.
var transitions = map[model.Step][]model.Step{
	model.StepIdle:            {model.StepConfirmStart},
	model.StepConfirmStart:    {model.StepCollectImages, model.StepIdle},
	model.StepCollectImages:   {model.StepCollectPersonal, model.StepCollectImages},
	model.StepCollectPersonal: {model.StepCollectWorkshop},
	model.StepCollectWorkshop: {model.StepReviewSummary},
	model.StepReviewSummary:   {model.StepCompleted, model.StepCollectImages},
	model.StepCompleted:       {},
}

// TransitionError reports an attempted illegal edge. The state is left
// untouched when this is returned.
type TransitionError struct {
	From    model.Step
	To      model.Step
	Allowed []model.Step
}

func (e *TransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed)+1)
	for _, s := range e.Allowed {
		allowed = append(allowed, string(s))
	}
	allowed = append(allowed, string(model.StepIdle))
	return fmt.Sprintf("cannot transition from %s to %s (allowed: %s)",
		e.From, e.To, strings.Join(allowed, ", "))
}

func (e *TransitionError) Unwrap() error {
	return common.ErrInvalidTransition
}

// Machine drives case states through the transition table. It holds no
// per-case state itself; callers must serialize transitions per case id.
type Machine struct {
	catalog    *model.Catalog
	maxRetries int
}

// NewMachine creates a machine over one catalog snapshot.
func NewMachine(catalog *model.Catalog, maxRetries int) *Machine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Machine{
		catalog:    catalog,
		maxRetries: maxRetries,
	}
}

// NewCase mints a case in the initial state for the given element codes.
// Parent elements and unknown codes are rejected up front.
func (m *Machine) NewCase(elementCodes []string) (*model.CaseState, error) {
	codes := make([]string, 0, len(elementCodes))
	for _, code := range elementCodes {
		elem, ok := m.catalog.ElementByCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: %q", common.ErrUnknownElement, code)
		}
		if m.catalog.HasVariants(elem.ID) {
			return nil, fmt.Errorf("%w: %s must be narrowed before a case can start", common.ErrVariantRequired, elem.Code)
		}
		codes = append(codes, elem.Code)
	}

	return model.NewCaseState(uuid.NewString(), codes), nil
}

// CanTransition reports whether the edge from -> to is legal. The cancel
// edge to IDLE is always legal.
func (m *Machine) CanTransition(from, to model.Step) bool {
	if to == model.StepIdle {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Current returns the case's current step.
func (m *Machine) Current(state *model.CaseState) model.Step {
	return state.Step
}

// Transition moves the case to the target step. Illegal edges fail loudly
// with a TransitionError and leave the state unchanged. Every successful
// transition resets the retry counter and clears the error message.
func (m *Machine) Transition(state *model.CaseState, to model.Step) error {
	if !to.Valid() {
		return fmt.Errorf("unknown step %q", to)
	}

	if !m.CanTransition(state.Step, to) {
		return &TransitionError{
			From:    state.Step,
			To:      to,
			Allowed: transitions[state.Step],
		}
	}

	// Element collection can only be left forward once every element has
	// finished both phases.
	if state.Step == model.StepCollectImages && to == model.StepCollectPersonal && !state.AllElementsComplete() {
		pending, _ := state.NextPendingElement()
		return fmt.Errorf("element %s is not complete yet", pending)
	}

	state.Step = to
	state.RetryCount = 0
	state.ErrorMessage = ""
	state.UpdatedAt = time.Now().UTC()

	if to == model.StepCollectImages {
		m.enterImageCollection(state)
	}

	return nil
}

// Cancel returns the case to IDLE. Legal from every state; collected data is
// kept so a resumed case does not start over.
func (m *Machine) Cancel(state *model.CaseState) {
	state.Step = model.StepIdle
	state.RetryCount = 0
	state.ErrorMessage = ""
	state.UpdatedAt = time.Now().UTC()
}

// RecordInvalid notes one invalid input at the current step and reports
// whether the retry budget is exhausted. Exhaustion is surfaced, never acted
// on: escalation is the caller's decision.
func (m *Machine) RecordInvalid(state *model.CaseState, message string) bool {
	state.RetryCount++
	state.ErrorMessage = message
	state.UpdatedAt = time.Now().UTC()
	return state.RetryCount >= m.maxRetries
}

// MaxRetries returns the configured per-step retry budget.
func (m *Machine) MaxRetries() int {
	return m.maxRetries
}

// Catalog returns the snapshot the machine was built over.
func (m *Machine) Catalog() *model.Catalog {
	return m.catalog
}
