package engine

import (
	"fmt"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// Replay rebuilds engine state from a journal of committed events, in the
// order they were committed. Validation and payment callouts are not
// re-run: the journal only ever holds events that already passed them.
// Events are not re-emitted to the sink.
//
// Replay must run on a freshly constructed engine before it serves traffic.
func (e *Engine) Replay(events []domain.TokenEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.replaying = true
	defer func() { e.replaying = false }()

	for i := range events {
		if err := e.apply(&events[i]); err != nil {
			return fmt.Errorf("replay failed at event %s (seq %d): %w", events[i].ID, events[i].Sequence, err)
		}
	}
	return nil
}

func (e *Engine) apply(ev *domain.TokenEvent) error {
	e.seq = ev.Sequence

	switch ev.Type {
	case domain.EventTypeMint:
		return e.ledger.Mint(*ev.To, ev.Quantity)

	case domain.EventTypeBurn:
		return e.ledger.Burn(*ev.From, ev.Quantity)

	case domain.EventTypeTransfer:
		return e.ledger.Transfer(*ev.From, *ev.To, ev.Quantity)

	case domain.EventTypeApproval:
		e.ledger.Approve(ev.Caller, *ev.Spender, ev.Quantity)
		return nil

	case domain.EventTypeDelegate:
		e.votes.Delegate(ev.Caller, *ev.Delegatee, e.ledger.BalanceOf(ev.Caller), e.seq)
		return nil

	case domain.EventTypeClaim:
		if err := e.claims.Record(ev.Caller, ev.Quantity); err != nil {
			return err
		}
		return e.ledger.Mint(*ev.To, ev.Quantity)

	case domain.EventTypeSignatureMint:
		e.mints.Consume(*ev.UID)
		return e.ledger.Mint(*ev.To, ev.Quantity)

	case domain.EventTypeConditionSet:
		reset := true
		if ev.ResetEligibility != nil {
			reset = *ev.ResetEligibility
		}
		return e.claims.SetCondition(*ev.Condition, reset)

	case domain.EventTypeOwnerSet:
		e.control.SetOwner(*ev.To)
		return nil

	case domain.EventTypeSaleRecipient:
		e.saleRecipient = *ev.To
		return nil

	case domain.EventTypeContractURISet:
		e.contractURI = *ev.URI
		return nil

	case domain.EventTypeRoleGranted:
		return e.control.GrantRole(ev.Caller, *ev.Role, *ev.To)

	case domain.EventTypeRoleRevoked:
		return e.control.RevokeRole(ev.Caller, *ev.Role, *ev.To)

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}
