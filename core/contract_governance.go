package core

import (
	"eusko/core/contract"
	"eusko/native/governance"
)

type governanceContract struct{}

func (governanceContract) Name() string { return ContractGovernance }

func (governanceContract) Run(env *contract.Env, input []byte) ([]byte, error) {
	method, raw, err := contract.Decode(governance.ABI(), input)
	if err != nil {
		return nil, err
	}
	args := contract.Args(raw)
	engine := bindGovernance(env.State, env.Emitter, env.Now)
	out := method.Outputs
	caller := env.Caller

	switch method.Name {
	case governance.MethodDiscountRate:
		rate, err := engine.DiscountRate()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(rate))
	case governance.MethodProposalCount:
		count, err := engine.ProposalCount()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(count))
	case governance.MethodOwner:
		owner, err := engine.Owner()
		if err != nil {
			return nil, err
		}
		return out.Pack(owner.Common())
	case governance.MethodProposals:
		id, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		p, err := engine.Proposal(id)
		if err != nil {
			return nil, err
		}
		return out.Pack(p.Description, contract.BigUint(p.NewRate), contract.BigUint(p.VotesFor),
			contract.BigUint(p.VotesAgainst), p.Executed, p.Proposer.Common())
	case governance.MethodHasVoted:
		id, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		voter, err := args.Address(1)
		if err != nil {
			return nil, err
		}
		voted, err := engine.HasVoted(id, voter)
		if err != nil {
			return nil, err
		}
		return out.Pack(voted)
	case governance.MethodBalanceOf:
		account, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		id, err := args.Uint64(1)
		if err != nil {
			return nil, err
		}
		bal, err := engine.BadgeBalance(account, id)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(bal))
	case governance.MethodTokenURI, governance.MethodOwnerOf:
		id, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		badge, err := engine.Badge(id)
		if err != nil {
			return nil, err
		}
		if method.Name == governance.MethodTokenURI {
			return out.Pack(badge.MetadataURI)
		}
		return out.Pack(badge.Holder.Common())
	case governance.MethodCreateProposal:
		description, err := args.String(0)
		if err != nil {
			return nil, err
		}
		rate, err := args.Uint64(1)
		if err != nil {
			return nil, err
		}
		p, err := engine.CreateProposal(caller, description, rate)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(p.ID))
	case governance.MethodVote:
		id, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		support, err := args.Bool(1)
		if err != nil {
			return nil, err
		}
		return nil, engine.Vote(caller, id, support)
	case governance.MethodExecuteProposal:
		id, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		return nil, engine.ExecuteProposal(caller, id)
	case governance.MethodMintReward:
		to, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		uri, err := args.String(1)
		if err != nil {
			return nil, err
		}
		data, err := args.Bytes(2)
		if err != nil {
			return nil, err
		}
		badge, err := engine.MintReward(caller, to, uri, data)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(badge.ID))
	}
	return nil, contract.ErrUnknownMethod
}
