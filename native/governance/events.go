package governance

import (
	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
)

const (
	EventTypeProposalCreated  = "gov.proposed"
	EventTypeVoteCast         = "gov.vote"
	EventTypeProposalExecuted = "gov.executed"
	EventTypeRewardMinted     = "gov.reward_minted"
)

type ProposalCreatedEvent struct {
	Proposal *Proposal
}

func (ProposalCreatedEvent) EventType() string { return EventTypeProposalCreated }

func (e ProposalCreatedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeProposalCreated, Attributes: map[string]string{
		"id":          events.FormatUint(e.Proposal.ID),
		"proposer":    e.Proposal.Proposer.String(),
		"description": e.Proposal.Description,
		"newRate":     events.FormatUint(e.Proposal.NewRate),
	}}
}

type VoteCastEvent struct {
	ProposalID uint64
	Voter      crypto.Address
	Support    bool
}

func (VoteCastEvent) EventType() string { return EventTypeVoteCast }

func (e VoteCastEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeVoteCast, Attributes: map[string]string{
		"id":      events.FormatUint(e.ProposalID),
		"voter":   e.Voter.String(),
		"support": events.FormatBool(e.Support),
	}}
}

type ProposalExecutedEvent struct {
	ProposalID uint64
	OldRate    uint64
	NewRate    uint64
}

func (ProposalExecutedEvent) EventType() string { return EventTypeProposalExecuted }

func (e ProposalExecutedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeProposalExecuted, Attributes: map[string]string{
		"id":      events.FormatUint(e.ProposalID),
		"oldRate": events.FormatUint(e.OldRate),
		"newRate": events.FormatUint(e.NewRate),
	}}
}

type RewardMintedEvent struct {
	Badge Badge
}

func (RewardMintedEvent) EventType() string { return EventTypeRewardMinted }

func (e RewardMintedEvent) Event() *types.Event {
	return &types.Event{Type: EventTypeRewardMinted, Attributes: map[string]string{
		"id":          events.FormatUint(e.Badge.ID),
		"volunteer":   e.Badge.Holder.String(),
		"metadataURI": e.Badge.MetadataURI,
	}}
}
