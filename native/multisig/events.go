package multisig

import (
	"encoding/hex"

	"github.com/holiman/uint256"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
)

const (
	EventTypeSubmitted        = "multisig.submitted"
	EventTypeConfirmed        = "multisig.confirmed"
	EventTypeExecuted         = "multisig.executed"
	EventTypeSignerAdded      = "multisig.signer_added"
	EventTypeSignerRemoved    = "multisig.signer_removed"
	EventTypeThresholdChanged = "multisig.threshold_changed"
)

type SubmittedEvent struct {
	Index  uint64
	Signer crypto.Address
	Target crypto.Address
	Value  *uint256.Int
	Data   []byte
}

func (SubmittedEvent) EventType() string { return EventTypeSubmitted }

func (e SubmittedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeSubmitted, Attributes: map[string]string{
		"index":  events.FormatUint(e.Index),
		"signer": e.Signer.String(),
		"target": e.Target.String(),
		"value":  events.FormatAmount(e.Value),
		"data":   "0x" + hex.EncodeToString(e.Data),
	}}
}

type ConfirmedEvent struct {
	Index         uint64
	Signer        crypto.Address
	Confirmations uint64
}

func (ConfirmedEvent) EventType() string { return EventTypeConfirmed }

func (e ConfirmedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeConfirmed, Attributes: map[string]string{
		"index":         events.FormatUint(e.Index),
		"signer":        e.Signer.String(),
		"confirmations": events.FormatUint(e.Confirmations),
	}}
}

type ExecutedEvent struct {
	Index  uint64
	Signer crypto.Address
	Target crypto.Address
}

func (ExecutedEvent) EventType() string { return EventTypeExecuted }

func (e ExecutedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeExecuted, Attributes: map[string]string{
		"index":  events.FormatUint(e.Index),
		"signer": e.Signer.String(),
		"target": e.Target.String(),
	}}
}

type SignerEvent struct {
	Type   string
	Signer crypto.Address
}

func (e SignerEvent) EventType() string { return e.Type }

func (e SignerEvent) Event() *types.Event {
	return &types.Event{Type: e.Type, Attributes: map[string]string{
		"signer": e.Signer.String(),
	}}
}

type ThresholdChangedEvent struct {
	Old, New uint64
}

func (ThresholdChangedEvent) EventType() string { return EventTypeThresholdChanged }

func (e ThresholdChangedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeThresholdChanged, Attributes: map[string]string{
		"old": events.FormatUint(e.Old),
		"new": events.FormatUint(e.New),
	}}
}
