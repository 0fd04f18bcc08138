package ledger

import (
	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
)

const (
	EventTypeTransfer                 = "ledger.transfer"
	EventTypeApproval                 = "ledger.approval"
	EventTypeMinted                   = "ledger.minted"
	EventTypeRedeemed                 = "ledger.redeemed"
	EventTypeBurned                   = "ledger.burned"
	EventTypeSpent                    = "ledger.spent"
	EventTypeMerchantClaimed          = "ledger.merchant_claimed"
	EventTypeMerchantAdded            = "ledger.merchant_added"
	EventTypeMerchantRemoved          = "ledger.merchant_removed"
	EventTypeAuthorizedAccountAdded   = "ledger.authorized_account_added"
	EventTypeAuthorizedAccountRemoved = "ledger.authorized_account_removed"
	EventTypeReserveUpdated           = "ledger.reserve_updated"
	EventTypeOwnershipTransferred     = "ledger.ownership_transferred"
	EventTypeVolunteerActRegistered   = "ledger.volunteer_act_registered"
	EventTypeExpiredActRemoved        = "ledger.expired_act_removed"
)

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

// MintedEvent records a reserve-backed mint. ReferenceAmount equals Amount
// under the 1:1 peg.
type MintedEvent struct {
	Minter          crypto.Address
	Recipient       crypto.Address
	Amount          *uint256.Int
	ReferenceAmount *uint256.Int
}

func (MintedEvent) EventType() string { return EventTypeMinted }

func (e MintedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeMinted, Attributes: map[string]string{
		"minter":          e.Minter.String(),
		"recipient":       e.Recipient.String(),
		"amount":          events.FormatAmount(e.Amount),
		"referenceAmount": events.FormatAmount(e.ReferenceAmount),
	}}
}

type RedeemedEvent struct {
	Holder          crypto.Address
	Amount          *uint256.Int
	ReferenceAmount *uint256.Int
}

func (RedeemedEvent) EventType() string { return EventTypeRedeemed }

func (e RedeemedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeRedeemed, Attributes: map[string]string{
		"holder":          e.Holder.String(),
		"amount":          events.FormatAmount(e.Amount),
		"referenceAmount": events.FormatAmount(e.ReferenceAmount),
	}}
}

type BurnedEvent struct {
	Account crypto.Address
	Amount  *uint256.Int
}

func (BurnedEvent) EventType() string { return EventTypeBurned }

func (e BurnedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeBurned, Attributes: map[string]string{
		"account": e.Account.String(),
		"amount":  events.FormatAmount(e.Amount),
	}}
}

type SpentEvent struct {
	Spender  crypto.Address
	Merchant crypto.Address
	Amount   *uint256.Int
}

func (SpentEvent) EventType() string { return EventTypeSpent }

func (e SpentEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeSpent, Attributes: map[string]string{
		"spender":  e.Spender.String(),
		"merchant": e.Merchant.String(),
		"amount":   events.FormatAmount(e.Amount),
	}}
}

type MerchantClaimedEvent struct {
	Merchant crypto.Address
	Amount   *uint256.Int
}

func (MerchantClaimedEvent) EventType() string { return EventTypeMerchantClaimed }

func (e MerchantClaimedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeMerchantClaimed, Attributes: map[string]string{
		"merchant": e.Merchant.String(),
		"amount":   events.FormatAmount(e.Amount),
	}}
}

// MembershipEvent covers merchant and authorized-account set changes.
type MembershipEvent struct {
	Type    string
	Account crypto.Address
}

func (e MembershipEvent) EventType() string { return e.Type }

func (e MembershipEvent) Event() *types.Event {
	return &types.Event{Type: e.Type, Attributes: map[string]string{
		"account": e.Account.String(),
	}}
}

type ReserveUpdatedEvent struct {
	Old, New crypto.Address
}

func (ReserveUpdatedEvent) EventType() string { return EventTypeReserveUpdated }

func (e ReserveUpdatedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeReserveUpdated, Attributes: map[string]string{
		"old": e.Old.String(),
		"new": e.New.String(),
	}}
}

type OwnershipTransferredEvent struct {
	Previous, Next crypto.Address
}

func (OwnershipTransferredEvent) EventType() string { return EventTypeOwnershipTransferred }

func (e OwnershipTransferredEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeOwnershipTransferred, Attributes: map[string]string{
		"previousOwner": e.Previous.String(),
		"newOwner":      e.Next.String(),
	}}
}

type VolunteerActRegisteredEvent struct {
	Volunteer crypto.Address
	Act       VolunteerAct
}

func (VolunteerActRegisteredEvent) EventType() string { return EventTypeVolunteerActRegistered }

func (e VolunteerActRegisteredEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeVolunteerActRegistered, Attributes: map[string]string{
		"volunteer":   e.Volunteer.String(),
		"organism":    e.Act.Organism.String(),
		"description": e.Act.Description,
		"reward":      events.FormatAmount(e.Act.Reward),
		"timestamp":   events.FormatUint(e.Act.Timestamp),
	}}
}

type ExpiredActRemovedEvent struct {
	Volunteer crypto.Address
	Act       VolunteerAct
}

func (ExpiredActRemovedEvent) EventType() string { return EventTypeExpiredActRemoved }

func (e ExpiredActRemovedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeExpiredActRemoved, Attributes: map[string]string{
		"volunteer":   e.Volunteer.String(),
		"description": e.Act.Description,
		"reward":      events.FormatAmount(e.Act.Reward),
		"timestamp":   events.FormatUint(e.Act.Timestamp),
	}}
}
