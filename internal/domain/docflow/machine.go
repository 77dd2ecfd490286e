// Package docflow controls document status lifecycles.
//
// Deliveries run the full picking chain and every step is checked
// against a transition table. Receipts and transfers treat the
// intermediate statuses as display-only: any non-terminal status may
// move to any other status. Adjustments go straight to done or
// canceled. For every kind the transition into StatusDone is the
// validating transition: it is the single point where a document's
// stock effects are applied, and it requires an elevated permission.
package docflow

import (
	"context"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/security"
)

// deliveryTransitions is the enforced picking chain. Terminal statuses
// (done, canceled) have no outgoing edges.
var deliveryTransitions = map[entity.Status][]entity.Status{
	entity.StatusDraft:   {entity.StatusPicking, entity.StatusWaiting, entity.StatusCanceled},
	entity.StatusWaiting: {entity.StatusPicking, entity.StatusCanceled},
	entity.StatusPicking: {entity.StatusPacking, entity.StatusCanceled},
	entity.StatusPacking: {entity.StatusReady, entity.StatusCanceled},
	entity.StatusReady:   {entity.StatusDone, entity.StatusCanceled},
}

// validatePermissions maps a document kind to the permission required
// for its validating transition.
var validatePermissions = map[entity.Kind]string{
	entity.KindReceipt:    security.PermValidateReceipt,
	entity.KindDelivery:   security.PermValidateDelivery,
	entity.KindTransfer:   security.PermValidateTransfer,
	entity.KindAdjustment: security.PermAdjustStock,
}

// Machine validates status transitions for every document kind.
type Machine struct{}

// NewMachine creates a Machine.
func NewMachine() *Machine {
	return &Machine{}
}

// CanTransition reports whether a kind allows moving from one status
// to another. It does not consult permissions.
func (m *Machine) CanTransition(kind entity.Kind, from, to entity.Status) bool {
	if from.IsTerminal() || !to.IsValid() || to == from {
		return false
	}

	switch kind {
	case entity.KindDelivery:
		for _, allowed := range deliveryTransitions[from] {
			if allowed == to {
				return true
			}
		}
		return false
	case entity.KindReceipt, entity.KindTransfer:
		// Intermediate stages are not gated for these kinds.
		return true
	case entity.KindAdjustment:
		return to == entity.StatusDone || to == entity.StatusCanceled
	}
	return false
}

// Check verifies a transition is legal and that the acting user may
// perform it. Non-validating transitions are open to every role that
// can see the document; the transition into done requires the kind's
// validate permission.
func (m *Machine) Check(ctx context.Context, kind entity.Kind, from, to entity.Status) error {
	if !m.CanTransition(kind, from, to) {
		return apperror.NewIllegalTransition(string(kind), string(from), string(to))
	}

	if to != entity.StatusDone {
		return nil
	}
	return m.CheckValidate(ctx, kind)
}

// CheckValidate verifies the acting user holds the kind's validate
// permission. Creation with an immediate apply goes through here
// directly: a document born in done never walks the workflow, so
// there is no transition to check.
func (m *Machine) CheckValidate(ctx context.Context, kind entity.Kind) error {
	actor, ok := security.GetActor(ctx)
	if !ok {
		return apperror.NewUnauthorized("authentication required")
	}
	perm := validatePermissions[kind]
	if !security.HasPermission(actor.Role, perm) {
		return apperror.NewForbidden("missing permission: " + perm)
	}
	return nil
}

// NextStatuses returns the workflow moves from the given status: the
// table row for deliveries, done/canceled for the other kinds. Useful
// for API responses that surface allowed actions.
func (m *Machine) NextStatuses(kind entity.Kind, from entity.Status) []entity.Status {
	if from.IsTerminal() {
		return nil
	}
	if kind == entity.KindDelivery {
		allowed := deliveryTransitions[from]
		out := make([]entity.Status, len(allowed))
		copy(out, allowed)
		return out
	}
	return []entity.Status{entity.StatusDone, entity.StatusCanceled}
}
