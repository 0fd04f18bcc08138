package core

import (
	"eusko/core/contract"
	"eusko/crypto"
)

// Names under which the built-in contracts are registered.
const (
	ContractRefAsset   = "refasset"
	ContractLedger     = "ledger"
	ContractMultisig   = "multisig"
	ContractGovernance = "governance"
)

var (
	RefAssetAddress   = crypto.ContractAddress(ContractRefAsset)
	LedgerAddress     = crypto.ContractAddress(ContractLedger)
	MultisigAddress   = crypto.ContractAddress(ContractMultisig)
	GovernanceAddress = crypto.ContractAddress(ContractGovernance)
)

// NewRouter registers every built-in contract at its fixed address.
func NewRouter() *contract.Router {
	router := contract.NewRouter()
	mustRegister(router, RefAssetAddress, refAssetContract{})
	mustRegister(router, LedgerAddress, ledgerContract{})
	mustRegister(router, MultisigAddress, multisigContract{})
	mustRegister(router, GovernanceAddress, governanceContract{})
	return router
}

func mustRegister(router *contract.Router, addr crypto.Address, c contract.Contract) {
	if err := router.Register(addr, c); err != nil {
		panic(err)
	}
}
