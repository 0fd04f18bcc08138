package volunteering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/holiman/uint256"

	"eusko/core/types"
	"eusko/crypto"
	"eusko/native/ledger"
	"eusko/rpc/client"
)

// ledgerContractName is the key the node reports the ledger under in
// eusko_chainInfo.
const ledgerContractName = "ledger"

var (
	// ErrRegistrationRejected wraps a failed registerAct receipt.
	ErrRegistrationRejected = errors.New("volunteering: registerAct rejected")
	// ErrNoOperator is returned by RegisterAct when no signing key is loaded.
	ErrNoOperator = errors.New("volunteering: no operator key configured")
)

// Ledger is the on-chain surface the service needs.
type Ledger interface {
	IsApprovedMerchant(ctx context.Context, account crypto.Address) (bool, error)
	RegisterAct(ctx context.Context, op Opportunity) (*types.Receipt, error)
}

// ChainLedger talks to a node over JSON-RPC and signs registrations with
// the operator key, which must be the ledger owner or an authorized account.
type ChainLedger struct {
	client   *client.Client
	operator *crypto.PrivateKey

	mu      sync.Mutex
	address *crypto.Address
}

func NewChainLedger(c *client.Client, operator *crypto.PrivateKey) *ChainLedger {
	return &ChainLedger{client: c, operator: operator}
}

// Operator returns the address registrations are signed by.
func (l *ChainLedger) Operator() crypto.Address {
	if l.operator == nil {
		return crypto.ZeroAddress
	}
	return l.operator.PubKey().Address()
}

func (l *ChainLedger) ledgerAddress(ctx context.Context) (crypto.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.address != nil {
		return *l.address, nil
	}
	info, err := l.client.ChainInfo(ctx)
	if err != nil {
		return crypto.Address{}, err
	}
	raw, ok := info.Contracts[ledgerContractName]
	if !ok {
		return crypto.Address{}, fmt.Errorf("volunteering: node does not expose a %s contract", ledgerContractName)
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return crypto.Address{}, err
	}
	l.address = &addr
	return addr, nil
}

func (l *ChainLedger) IsApprovedMerchant(ctx context.Context, account crypto.Address) (bool, error) {
	to, err := l.ledgerAddress(ctx)
	if err != nil {
		return false, err
	}
	data, err := ledger.Pack(ledger.MethodIsApprovedMerchant, account)
	if err != nil {
		return false, err
	}
	ret, err := l.client.Call(ctx, account, to, data)
	if err != nil {
		return false, err
	}
	values, err := ledger.Unpack(ledger.MethodIsApprovedMerchant, ret)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("volunteering: unexpected isApprovedMerchant payload")
	}
	approved, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("volunteering: unexpected isApprovedMerchant payload")
	}
	return approved, nil
}

// RegisterAct submits registerAct for op and waits for its receipt. A
// receipt with a failed status is returned together with
// ErrRegistrationRejected.
func (l *ChainLedger) RegisterAct(ctx context.Context, op Opportunity) (*types.Receipt, error) {
	if l.operator == nil {
		return nil, ErrNoOperator
	}
	if strings.TrimSpace(op.Volunteer) == "" {
		return nil, ErrMissingVolunteer
	}
	volunteer, err := crypto.ParseAddress(op.Volunteer)
	if err != nil {
		return nil, fmt.Errorf("%w: volunteer %q", crypto.ErrInvalidAddress, op.Volunteer)
	}
	organism, err := crypto.ParseAddress(op.Organism)
	if err != nil {
		return nil, fmt.Errorf("%w: organism %q", crypto.ErrInvalidAddress, op.Organism)
	}
	to, err := l.ledgerAddress(ctx)
	if err != nil {
		return nil, err
	}
	data, err := ledger.Pack(ledger.MethodRegisterAct, volunteer, organism, op.Description, RewardUnits(op.Reward))
	if err != nil {
		return nil, err
	}
	receipt, err := l.client.SignAndSend(ctx, l.operator, to, data)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return receipt, fmt.Errorf("%w: %s", ErrRegistrationRejected, receipt.Error)
	}
	return receipt, nil
}

// RewardUnits converts a catalogue reward in whole EUS to ledger base units.
func RewardUnits(reward uint64) *uint256.Int {
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(ledger.TokenDecimals))
	return new(uint256.Int).Mul(uint256.NewInt(reward), scale)
}
