package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rentora/rentora-api/internal/models"
)

// TenancyFSM wraps a tenancy with its lifecycle state machine
type TenancyFSM struct {
	tenancy *models.Tenancy
	fsm     *fsm.FSM
}

// NewTenancyFSM creates a new tenancy state machine
func NewTenancyFSM(tenancy *models.Tenancy) *TenancyFSM {
	tfsm := &TenancyFSM{
		tenancy: tenancy,
	}

	tfsm.fsm = fsm.NewFSM(
		tenancy.Status,
		fsm.Events{
			// active → ended (vacate, or supersession by a newer tenancy)
			{Name: "end", Src: []string{models.TenancyStatusActive}, Dst: models.TenancyStatusEnded},

			// ended → active (data correction)
			{Name: "reopen", Src: []string{models.TenancyStatusEnded}, Dst: models.TenancyStatusActive},
		},
		fsm.Callbacks{},
	)

	return tfsm
}

// End transitions the tenancy to ended
func (t *TenancyFSM) End(ctx context.Context) error {
	if !t.tenancy.MayEnd() {
		return fmt.Errorf("tenancy cannot be ended in current state: %s", t.tenancy.Status)
	}

	if err := t.fsm.Event(ctx, "end"); err != nil {
		return fmt.Errorf("failed to end tenancy: %w", err)
	}

	t.tenancy.Status = t.fsm.Current()
	return nil
}

// Reopen transitions an ended tenancy back to active
func (t *TenancyFSM) Reopen(ctx context.Context) error {
	if !t.tenancy.MayReopen() {
		return fmt.Errorf("tenancy cannot be reopened in current state: %s", t.tenancy.Status)
	}

	if err := t.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen tenancy: %w", err)
	}

	t.tenancy.Status = t.fsm.Current()
	return nil
}

// Current returns the current state
func (t *TenancyFSM) Current() string {
	return t.fsm.Current()
}

// Can checks if a transition is possible
func (t *TenancyFSM) Can(event string) bool {
	return t.fsm.Can(event)
}
