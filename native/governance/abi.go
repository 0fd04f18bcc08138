package governance

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	nativecommon "eusko/native/common"
)

const (
	MethodDiscountRate    = "discountRate"
	MethodProposalCount   = "proposalCount"
	MethodProposals       = "proposals"
	MethodHasVoted        = "hasVoted"
	MethodCreateProposal  = "createProposal"
	MethodVote            = "vote"
	MethodExecuteProposal = "executeProposal"
	MethodMintReward      = "mintReward"
	MethodBalanceOf       = "balanceOf"
	MethodTokenURI        = "tokenURI"
	MethodOwnerOf         = "ownerOf"
	MethodOwner           = "owner"
)

const ABIJSON = `[
{"type":"function","name":"discountRate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"proposalCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"proposals","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"description","type":"string"},{"name":"newRate","type":"uint256"},{"name":"votesFor","type":"uint256"},{"name":"votesAgainst","type":"uint256"},{"name":"executed","type":"bool"},{"name":"proposer","type":"address"}]},
{"type":"function","name":"hasVoted","stateMutability":"view","inputs":[{"name":"id","type":"uint256"},{"name":"voter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[{"name":"description","type":"string"},{"name":"newRate","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"}]},
{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint256"},{"name":"support","type":"bool"}],"outputs":[]},
{"type":"function","name":"executeProposal","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
{"type":"function","name":"mintReward","stateMutability":"nonpayable","inputs":[{"name":"volunteer","type":"address"},{"name":"metadataURI","type":"string"},{"name":"data","type":"bytes"}],"outputs":[{"name":"id","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

var contractABI = nativecommon.MustParseABI("governance", ABIJSON)

// ABI returns the parsed DAO call interface.
func ABI() abi.ABI { return contractABI }

// Pack encodes a call to method with native argument types.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return nativecommon.Pack(contractABI, method, args...)
}
