package core

import (
	"fmt"

	"eusko/core/events"
	"eusko/core/genesis"
	"eusko/core/state"
)

// applyGenesis seeds every contract from spec. Genesis runs with the
// contract owners as callers so the usual role checks apply.
func applyGenesis(m *state.Manager, spec *genesis.GenesisSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	emitter := events.NoopEmitter{}
	now := spec.GenesisTimestamp()

	asset := bindRefAsset(m, emitter)
	assetOwner := spec.RefAssetOwner()
	if err := asset.Initialize(assetOwner); err != nil {
		return fmt.Errorf("genesis: refasset: %w", err)
	}
	allocs, err := spec.Allocations()
	if err != nil {
		return err
	}
	for _, alloc := range allocs {
		if err := asset.Mint(assetOwner, alloc.Account, alloc.Amount); err != nil {
			return fmt.Errorf("genesis: refasset alloc %s: %w", alloc.Account, err)
		}
	}

	ledgerEngine := bindLedger(m, emitter, now)
	ledgerOwner := spec.LedgerOwner()
	if err := ledgerEngine.Initialize(ledgerOwner, spec.LedgerReserve()); err != nil {
		return fmt.Errorf("genesis: ledger: %w", err)
	}
	for _, account := range spec.AuthorizedAccounts() {
		if err := ledgerEngine.AddAuthorizedAccount(ledgerOwner, account); err != nil {
			return fmt.Errorf("genesis: authorize %s: %w", account, err)
		}
	}
	for _, merchant := range spec.Merchants() {
		if err := ledgerEngine.AddMerchant(ledgerOwner, merchant); err != nil {
			return fmt.Errorf("genesis: merchant %s: %w", merchant, err)
		}
	}
	reserve, err := spec.InitialReserve()
	if err != nil {
		return err
	}
	if !reserve.IsZero() {
		// Funding follows the regular mint path: reference units are minted
		// to the ledger owner, approved to custody and exchanged 1:1.
		if err := asset.Mint(assetOwner, ledgerOwner, reserve); err != nil {
			return fmt.Errorf("genesis: fund reserve: %w", err)
		}
		if err := asset.Approve(ledgerOwner, LedgerAddress, reserve); err != nil {
			return fmt.Errorf("genesis: fund reserve: %w", err)
		}
		if err := ledgerEngine.MintWithReference(ledgerOwner, spec.LedgerReserve(), reserve); err != nil {
			return fmt.Errorf("genesis: fund reserve: %w", err)
		}
	}

	if err := bindMultisig(m, emitter, nil).Initialize(spec.Signers(), spec.Multisig.Threshold); err != nil {
		return fmt.Errorf("genesis: multisig: %w", err)
	}
	if err := bindGovernance(m, emitter, now).Initialize(spec.GovernanceOwner(), spec.Governance.DiscountRate); err != nil {
		return fmt.Errorf("genesis: governance: %w", err)
	}

	hash, err := spec.Hash()
	if err != nil {
		return err
	}
	if err := m.SetChainID(spec.ChainID); err != nil {
		return err
	}
	return m.SetGenesisHash(hash)
}
