package refasset

import (
	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
)

const (
	EventTypeTransfer = "refasset.transfer"
	EventTypeApproval = "refasset.approval"
)

// TransferEvent covers transfers, mints (zero From) and burns (zero To).
type TransferEvent struct {
	From, To crypto.Address
	Amount   *uint256.Int
}

func (TransferEvent) EventType() string { return EventTypeTransfer }

func (e TransferEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeTransfer, Attributes: map[string]string{
		"from":   e.From.String(),
		"to":     e.To.String(),
		"amount": events.FormatAmount(e.Amount),
	}}
}

type ApprovalEvent struct {
	Owner, Spender crypto.Address
	Amount         *uint256.Int
}

func (ApprovalEvent) EventType() string { return EventTypeApproval }

func (e ApprovalEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeApproval, Attributes: map[string]string{
		"owner":   e.Owner.String(),
		"spender": e.Spender.String(),
		"amount":  events.FormatAmount(e.Amount),
	}}
}
