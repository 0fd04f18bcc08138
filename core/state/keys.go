package state

import "encoding/binary"


var (
	refAssetBalancePrefix   = []byte("refasset/balance/")
	refAssetAllowancePrefix = []byte("refasset/allowance/")
	refAssetSupplyKey       = []byte("refasset/supply")
	refAssetOwnerKey        = []byte("refasset/owner")

	ledgerBalancePrefix    = []byte("ledger/balance/")
	ledgerAllowancePrefix  = []byte("ledger/allowance/")
	ledgerSupplyKey        = []byte("ledger/supply")
	ledgerReserveTotalKey  = []byte("ledger/reserve-total")
	ledgerOwnerKey         = []byte("ledger/owner")
	ledgerReserveAddrKey   = []byte("ledger/reserve-address")
	ledgerAuthorizedPrefix = []byte("ledger/authorized/")
	ledgerAuthorizedList   = []byte("ledger/authorized-list")
	ledgerMerchantPrefix   = []byte("ledger/merchant/")
	ledgerMerchantList     = []byte("ledger/merchant-list")
	ledgerPotPrefix        = []byte("ledger/pot/")
	ledgerActsPrefix       = []byte("ledger/acts/")

	multisigSignersKey    = []byte("multisig/signers")
	multisigThresholdKey  = []byte("multisig/threshold")
	multisigTxCountKey    = []byte("multisig/tx-count")
	multisigTxPrefix      = []byte("multisig/tx/")
	multisigConfirmPrefix = []byte("multisig/confirm/")

	governanceOwnerKey    = []byte("governance/owner")
	governanceRateKey     = []byte("governance/discount-rate")
	governanceCountKey    = []byte("governance/proposal-count")
	governanceProposalPfx = []byte("governance/proposal/")
	governanceVotePrefix  = []byte("governance/vote/")
	governanceBadgeCount  = []byte("governance/badge-count")
	governanceBadgePrefix = []byte("governance/badge/")

	noncePrefix       = []byte("chain/nonce/")
	heightKey         = []byte("chain/height")
	chainIDKey        = []byte("chain/id")
	genesisHashKey    = []byte("chain/genesis-hash")
	receiptPrefix     = []byte("chain/receipt/")
	eventCountKey     = []byte("chain/event-count")
	eventRecordPrefix = []byte("chain/event/")
)

func compositeKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return buf
}

func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
