package form

import (
	"context"

	"github.com/looplab/fsm"

	utilfsm "cloupeer.io/supercar/internal/pkg/util/fsm"
)

// Controller states.
const (
	StateUninitialized   = "uninitialized"
	StateHydrating       = "hydrating"
	StateReady           = "ready"
	StateHydrationFailed = "hydration_failed"
	StateSubmitting      = "submitting"
	StateSubmitFailed    = "submit_failed"
)

// Controller events.
const (
	EventActivate      = "activate"
	EventHydrate       = "hydrate"
	EventFailHydration = "fail_hydration"
	EventSubmit        = "submit"
	EventSubmitted     = "submitted"
	EventFailSubmit    = "fail_submit"
	EventDeactivate    = "deactivate"
)

// editableStates accept Edit and Submit.
var editableStates = []string{StateReady, StateHydrationFailed, StateSubmitFailed}

// settledStates returns the editable states plus pending. A result for the
// current resource may land after a newer call on the same resource already
// settled; the result observed last wins.
func settledStates(pending string) []string {
	return append([]string{pending}, editableStates...)
}

var allStates = []string{
	StateUninitialized, StateHydrating, StateReady,
	StateHydrationFailed, StateSubmitting, StateSubmitFailed,
}

func (c *Controller) newFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: EventActivate, Src: allStates, Dst: StateHydrating},
			{Name: EventHydrate, Src: settledStates(StateHydrating), Dst: StateReady},
			{Name: EventFailHydration, Src: settledStates(StateHydrating), Dst: StateHydrationFailed},
			{Name: EventSubmit, Src: editableStates, Dst: StateSubmitting},
			{Name: EventSubmitted, Src: settledStates(StateSubmitting), Dst: StateReady},
			{Name: EventFailSubmit, Src: settledStates(StateSubmitting), Dst: StateSubmitFailed},
			{Name: EventDeactivate, Src: allStates, Dst: StateUninitialized},
		},
		fsm.Callbacks{
			"before_" + EventSubmit: utilfsm.WrapEvent(c.validateAll),
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger().Debug("Form state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
}

// fire runs event on the state machine. Events that leave the state unchanged
// are not errors. Transitions never depend on the caller's context, so a
// canceled request cannot leave the machine half way.
func (c *Controller) fire(event string) error {
	err := c.fsm.Event(context.Background(), event)
	if err != nil && !utilfsm.IsNoTransition(err) {
		return err
	}
	return nil
}
