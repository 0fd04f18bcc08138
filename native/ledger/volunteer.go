package ledger

import (
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/text/unicode/norm"

	"eusko/crypto"
)

// NormalizeDescription trims and NFC-normalises an act description so the
// on-chain record and the off-chain listing compare byte for byte.
func NormalizeDescription(description string) string {
	return norm.NFC.String(strings.TrimSpace(description))
}

// RegisterAct records a volunteer act and moves reward from the reserve
// account to the volunteer. Supply is unchanged.
func (e *Engine) RegisterAct(caller, volunteer, organism crypto.Address, description string, reward *uint256.Int) (VolunteerAct, error) {
	if err := e.ready(); err != nil {
		return VolunteerAct{}, err
	}
	if err := e.authorize(caller, RoleAuthorized); err != nil {
		return VolunteerAct{}, err
	}
	if volunteer.IsZero() || volunteer == e.custody {
		return VolunteerAct{}, ErrInvalidVolunteer
	}
	if err := requirePositive(reward, ErrInvalidReward); err != nil {
		return VolunteerAct{}, err
	}
	description = NormalizeDescription(description)
	if len(description) > MaxDescriptionBytes {
		return VolunteerAct{}, ErrDescriptionTooLong
	}
	reserve, err := e.state.LedgerReserveAddress()
	if err != nil {
		return VolunteerAct{}, err
	}
	now := e.now()
	if now < 0 {
		now = 0
	}
	act := VolunteerAct{
		Organism:    organism,
		Description: description,
		Reward:      reward.Clone(),
		Timestamp:   uint64(now),
	}
	if err := e.move(reserve, volunteer, reward); err != nil {
		return VolunteerAct{}, err
	}
	acts, err := e.state.LedgerActs(volunteer)
	if err != nil {
		return VolunteerAct{}, err
	}
	acts = append(acts, act)
	if err := e.state.SetLedgerActs(volunteer, acts); err != nil {
		return VolunteerAct{}, err
	}
	e.emit(VolunteerActRegisteredEvent{Volunteer: volunteer, Act: act.Clone()})
	return act.Clone(), nil
}

// RemoveExpiredActs reverses every act of volunteer older than the expiry
// window, crediting the rewards back to the current reserve account.
// Unexpired acts keep their relative order. A sweep with nothing to expire
// writes nothing and emits nothing. If the volunteer can no longer cover a
// reversal the whole sweep fails.
func (e *Engine) RemoveExpiredActs(caller, volunteer crypto.Address) ([]VolunteerAct, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.authorize(caller, RoleAuthorized); err != nil {
		return nil, err
	}
	acts, err := e.state.LedgerActs(volunteer)
	if err != nil {
		return nil, err
	}
	now := e.now()
	kept := make([]VolunteerAct, 0, len(acts))
	var removed []VolunteerAct
	for _, act := range acts {
		if act.Expired(now) {
			removed = append(removed, act)
			continue
		}
		kept = append(kept, act)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	reserve, err := e.state.LedgerReserveAddress()
	if err != nil {
		return nil, err
	}
	total := new(uint256.Int)
	for _, act := range removed {
		if act.Reward == nil {
			continue
		}
		if _, overflow := total.AddOverflow(total, act.Reward); overflow {
			return nil, ErrAmountOverflow
		}
	}
	balance, err := e.state.LedgerBalance(volunteer)
	if err != nil {
		return nil, err
	}
	if balance.Lt(total) {
		return nil, &InsufficientBalanceError{Account: volunteer, Balance: balance.Clone(), Needed: total}
	}
	for _, act := range removed {
		if act.Reward == nil || act.Reward.IsZero() {
			continue
		}
		if err := e.move(volunteer, reserve, act.Reward); err != nil {
			return nil, err
		}
	}
	if err := e.state.SetLedgerActs(volunteer, kept); err != nil {
		return nil, err
	}
	out := make([]VolunteerAct, len(removed))
	for i, act := range removed {
		out[i] = act.Clone()
		if act.Reward == nil || act.Reward.IsZero() {
			continue
		}
		e.emit(ExpiredActRemovedEvent{Volunteer: volunteer, Act: act.Clone()})
	}
	return out, nil
}

// ActsByVolunteer returns the volunteer's live acts in registration order.
func (e *Engine) ActsByVolunteer(volunteer crypto.Address) ([]VolunteerAct, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	acts, err := e.state.LedgerActs(volunteer)
	if err != nil {
		return nil, err
	}
	out := make([]VolunteerAct, len(acts))
	for i, act := range acts {
		out[i] = act.Clone()
	}
	return out, nil
}
