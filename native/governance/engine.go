package governance

import (
	"strings"
	"time"

	"eusko/core/events"
	"eusko/crypto"
)

type proposalState interface {
	GovernanceOwner() (crypto.Address, error)
	SetGovernanceOwner(owner crypto.Address) error
	GovernanceDiscountRate() (uint64, error)
	SetGovernanceDiscountRate(rate uint64) error
	GovernanceProposalCount() (uint64, error)
	GovernanceGetProposal(id uint64) (*Proposal, bool, error)
	GovernancePutProposal(p *Proposal) error
	GovernanceHasVoted(id uint64, voter crypto.Address) (bool, error)
	GovernanceMarkVoted(id uint64, voter crypto.Address) error
	GovernanceBadgeCount() (uint64, error)
	GovernanceGetBadge(id uint64) (*Badge, bool, error)
	GovernancePutBadge(b *Badge) error
}

// Engine runs the discount-rate DAO and issues volunteer badges. Every
// account holds one vote per proposal.
type Engine struct {
	state   proposalState
	emitter events.Emitter
	nowFn   func() time.Time
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   time.Now,
	}
}

func (e *Engine) SetState(state proposalState) { e.state = state }

// SetEmitter configures the event emitter. Nil resets to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock used to stamp proposals.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = time.Now
		return
	}
	e.nowFn = now
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	return nil
}

// Initialize installs the owner and starting discount rate at genesis.
func (e *Engine) Initialize(owner crypto.Address, rate uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if owner.IsZero() {
		return ErrInvalidRecipient
	}
	if rate > MaxDiscountRate {
		return ErrRateTooHigh
	}
	if err := e.state.SetGovernanceOwner(owner); err != nil {
		return err
	}
	return e.state.SetGovernanceDiscountRate(rate)
}

func (e *Engine) Owner() (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	return e.state.GovernanceOwner()
}

func (e *Engine) DiscountRate() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.GovernanceDiscountRate()
}

func (e *Engine) ProposalCount() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.GovernanceProposalCount()
}

func (e *Engine) Proposal(id uint64) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	p, ok, err := e.state.GovernanceGetProposal(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (e *Engine) HasVoted(id uint64, voter crypto.Address) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.GovernanceHasVoted(id, voter)
}

// CreateProposal opens a proposal to set the discount rate. Proposal ids are
// sequential from zero.
func (e *Engine) CreateProposal(caller crypto.Address, description string, newRate uint64) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if newRate > MaxDiscountRate {
		return nil, ErrRateTooHigh
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	id, err := e.state.GovernanceProposalCount()
	if err != nil {
		return nil, err
	}
	p := &Proposal{
		ID:          id,
		Proposer:    caller,
		Description: description,
		NewRate:     newRate,
		CreatedAt:   uint64(e.nowFn().Unix()),
	}
	if err := e.state.GovernancePutProposal(p); err != nil {
		return nil, err
	}
	e.emitter.Emit(ProposalCreatedEvent{Proposal: p.Clone()})
	return p.Clone(), nil
}

func (e *Engine) Vote(caller crypto.Address, id uint64, support bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return err
	}
	if p.Executed {
		return ErrProposalExecuted
	}
	voted, err := e.state.GovernanceHasVoted(id, caller)
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}
	if support {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}
	if err := e.state.GovernanceMarkVoted(id, caller); err != nil {
		return err
	}
	if err := e.state.GovernancePutProposal(p); err != nil {
		return err
	}
	e.emitter.Emit(VoteCastEvent{ProposalID: id, Voter: caller, Support: support})
	return nil
}

// ExecuteProposal applies an approved proposal. Owner only.
func (e *Engine) ExecuteProposal(caller crypto.Address, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	p, err := e.Proposal(id)
	if err != nil {
		return err
	}
	if p.Executed {
		return ErrProposalExecuted
	}
	if !p.Approved() {
		return ErrProposalNotApproved
	}
	old, err := e.state.GovernanceDiscountRate()
	if err != nil {
		return err
	}
	if err := e.state.SetGovernanceDiscountRate(p.NewRate); err != nil {
		return err
	}
	p.Executed = true
	if err := e.state.GovernancePutProposal(p); err != nil {
		return err
	}
	e.emitter.Emit(ProposalExecutedEvent{ProposalID: id, OldRate: old, NewRate: p.NewRate})
	return nil
}

// MintReward issues a badge to a volunteer. Owner only; ids start at 1.
func (e *Engine) MintReward(caller, to crypto.Address, metadataURI string, data []byte) (*Badge, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if to.IsZero() {
		return nil, ErrInvalidRecipient
	}
	count, err := e.state.GovernanceBadgeCount()
	if err != nil {
		return nil, err
	}
	badge := &Badge{
		ID:          count + 1,
		Holder:      to,
		MetadataURI: strings.TrimSpace(metadataURI),
		Data:        append([]byte(nil), data...),
	}
	if err := e.state.GovernancePutBadge(badge); err != nil {
		return nil, err
	}
	e.emitter.Emit(RewardMintedEvent{Badge: *badge})
	return badge, nil
}

// Badge returns the badge with id.
func (e *Engine) Badge(id uint64) (*Badge, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	b, ok, err := e.state.GovernanceGetBadge(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBadgeNotFound
	}
	return b, nil
}

// BadgeBalance is 1 when account holds badge id, otherwise 0.
func (e *Engine) BadgeBalance(account crypto.Address, id uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	b, ok, err := e.state.GovernanceGetBadge(id)
	if err != nil {
		return 0, err
	}
	if !ok || b.Holder != account {
		return 0, nil
	}
	return 1, nil
}

func (e *Engine) requireOwner(caller crypto.Address) error {
	owner, err := e.state.GovernanceOwner()
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != owner {
		return ErrUnauthorized
	}
	return nil
}
