package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"eusko/crypto"
)

// MaxDiscountRate mirrors the governance bound on the discount rate.
const MaxDiscountRate = 100

type GenesisSpec struct {
	ChainID     uint64         `json:"chainId"`
	GenesisTime string         `json:"genesisTime"`
	RefAsset    RefAssetSpec   `json:"refAsset"`
	Ledger      LedgerSpec     `json:"ledger"`
	Multisig    MultisigSpec   `json:"multisig"`
	Governance  GovernanceSpec `json:"governance"`

	genesisTimestamp time.Time
}

// RefAssetSpec seeds the reference currency. Alloc maps accounts to base
// unit amounts.
type RefAssetSpec struct {
	Owner string            `json:"owner"`
	Alloc map[string]string `json:"alloc,omitempty"`
}

// LedgerSpec seeds the reserve-backed token. InitialReserve is minted to the
// reserve address against reference units minted straight into custody.
type LedgerSpec struct {
	Owner          string   `json:"owner"`
	Reserve        string   `json:"reserve"`
	InitialReserve string   `json:"initialReserve,omitempty"`
	Authorized     []string `json:"authorized,omitempty"`
	Merchants      []string `json:"merchants,omitempty"`
}

type MultisigSpec struct {
	Signers   []string `json:"signers"`
	Threshold uint64   `json:"threshold"`
}

type GovernanceSpec struct {
	Owner        string `json:"owner"`
	DiscountRate uint64 `json:"discountRate"`
}

// Allocation is a resolved reference asset grant.
type Allocation struct {
	Account crypto.Address
	Amount  *uint256.Int
}

// LoadGenesisSpec reads and validates a genesis file.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesisSpec(data)
}

// ParseGenesisSpec decodes and validates a genesis document.
func ParseGenesisSpec(data []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

// Validate checks the document and caches the parsed genesis time.
func (s *GenesisSpec) Validate() error {
	if s.ChainID == 0 {
		return fmt.Errorf("chainId must be provided")
	}
	ts, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = ts

	if _, err := parseAccount("refAsset.owner", s.RefAsset.Owner); err != nil {
		return err
	}
	if _, err := s.Allocations(); err != nil {
		return err
	}
	if _, err := parseAccount("ledger.owner", s.Ledger.Owner); err != nil {
		return err
	}
	if _, err := parseAccount("ledger.reserve", s.Ledger.Reserve); err != nil {
		return err
	}
	if _, err := s.InitialReserve(); err != nil {
		return err
	}
	if _, err := parseAccountList("ledger.authorized", s.Ledger.Authorized); err != nil {
		return err
	}
	if _, err := parseAccountList("ledger.merchants", s.Ledger.Merchants); err != nil {
		return err
	}
	signers, err := parseAccountList("multisig.signers", s.Multisig.Signers)
	if err != nil {
		return err
	}
	if len(signers) == 0 {
		return fmt.Errorf("multisig.signers must not be empty")
	}
	if s.Multisig.Threshold == 0 || s.Multisig.Threshold > uint64(len(signers)) {
		return fmt.Errorf("multisig.threshold %d out of range 1..%d", s.Multisig.Threshold, len(signers))
	}
	if _, err := parseAccount("governance.owner", s.Governance.Owner); err != nil {
		return err
	}
	if s.Governance.DiscountRate > MaxDiscountRate {
		return fmt.Errorf("governance.discountRate %d exceeds %d", s.Governance.DiscountRate, MaxDiscountRate)
	}
	return nil
}

// Hash is the keccak256 digest of the canonical JSON encoding.
func (s *GenesisSpec) Hash() (common.Hash, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(ethcrypto.Keccak256(encoded)), nil
}

// Allocations returns the reference asset grants sorted by account.
func (s *GenesisSpec) Allocations() ([]Allocation, error) {
	out := make([]Allocation, 0, len(s.RefAsset.Alloc))
	for account, amount := range s.RefAsset.Alloc {
		addr, err := parseAccount("refAsset.alloc", account)
		if err != nil {
			return nil, err
		}
		value, err := parseAmountString(amount)
		if err != nil {
			return nil, fmt.Errorf("refAsset.alloc[%s]: %w", account, err)
		}
		out = append(out, Allocation{Account: addr, Amount: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.Hex() < out[j].Account.Hex()
	})
	return out, nil
}

// InitialReserve returns the amount minted to the reserve at genesis.
func (s *GenesisSpec) InitialReserve() (*uint256.Int, error) {
	if strings.TrimSpace(s.Ledger.InitialReserve) == "" {
		return new(uint256.Int), nil
	}
	value, err := parseAmountString(s.Ledger.InitialReserve)
	if err != nil {
		return nil, fmt.Errorf("ledger.initialReserve: %w", err)
	}
	return value, nil
}

func (s *GenesisSpec) RefAssetOwner() crypto.Address {
	return crypto.MustParseAddress(s.RefAsset.Owner)
}

func (s *GenesisSpec) LedgerOwner() crypto.Address { return crypto.MustParseAddress(s.Ledger.Owner) }

func (s *GenesisSpec) LedgerReserve() crypto.Address {
	return crypto.MustParseAddress(s.Ledger.Reserve)
}

func (s *GenesisSpec) AuthorizedAccounts() []crypto.Address {
	list, _ := parseAccountList("ledger.authorized", s.Ledger.Authorized)
	return list
}

func (s *GenesisSpec) Merchants() []crypto.Address {
	list, _ := parseAccountList("ledger.merchants", s.Ledger.Merchants)
	return list
}

func (s *GenesisSpec) Signers() []crypto.Address {
	list, _ := parseAccountList("multisig.signers", s.Multisig.Signers)
	return list
}

func (s *GenesisSpec) GovernanceOwner() crypto.Address {
	return crypto.MustParseAddress(s.Governance.Owner)
}

func parseAccount(field, value string) (crypto.Address, error) {
	addr, err := crypto.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	if addr.IsZero() {
		return crypto.Address{}, fmt.Errorf("%s: zero address", field)
	}
	return addr, nil
}

func parseAccountList(field string, values []string) ([]crypto.Address, error) {
	seen := make(map[crypto.Address]struct{}, len(values))
	out := make([]crypto.Address, 0, len(values))
	for i, value := range values {
		addr, err := parseAccount(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("%s[%d]: duplicate address %s", field, i, addr)
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}

func parseAmountString(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}
