package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"eusko/crypto"
	nativecommon "eusko/native/common"
)

// Method names of the ledger call interface.
const (
	MethodName                    = "name"
	MethodSymbol                  = "symbol"
	MethodDecimals                = "decimals"
	MethodTotalSupply             = "totalSupply"
	MethodBalanceOf               = "balanceOf"
	MethodAllowance               = "allowance"
	MethodTransfer                = "transfer"
	MethodApprove                 = "approve"
	MethodTransferFrom            = "transferFrom"
	MethodMintWithEURC            = "mintWithEURC"
	MethodRedeem                  = "redeem"
	MethodBurn                    = "burn"
	MethodSpend                   = "spend"
	MethodClaimFunds              = "claimFunds"
	MethodMerchantBalance         = "merchantBalances"
	MethodGetMerchants            = "getMerchants"
	MethodAddMerchant             = "addMerchant"
	MethodRemoveMerchant          = "removeMerchant"
	MethodIsApprovedMerchant      = "isApprovedMerchant"
	MethodAddAuthorizedAccount    = "addAuthorizedAccount"
	MethodRemoveAuthorizedAccount = "removeAuthorizedAccount"
	MethodIsAuthorizedAccount     = "isAuthorizedAccount"
	MethodGetAuthorizedAccounts   = "getAuthorizedAccounts"
	MethodUpdateReserve           = "updateReserve"
	MethodReserve                 = "reserve"
	MethodTotalReserve            = "totalEurosInReserve"
	MethodCustodyBalance          = "custodyBalance"
	MethodOwner                   = "owner"
	MethodTransferOwnership       = "transferOwnership"
	MethodRegisterAct             = "registerAct"
	MethodRemoveExpiredActs       = "removeExpiredActs"
	MethodGetActsByVolunteer      = "getActsByVolunteer"
)

// ABIJSON describes the ledger call interface.
const ABIJSON = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"mintWithEURC","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"redeem","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"spend","stateMutability":"nonpayable","inputs":[{"name":"merchant","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"claimFunds","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"amount","type":"uint256"}]},
{"type":"function","name":"merchantBalances","stateMutability":"view","inputs":[{"name":"merchant","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getMerchants","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"addMerchant","stateMutability":"nonpayable","inputs":[{"name":"merchant","type":"address"}],"outputs":[]},
{"type":"function","name":"removeMerchant","stateMutability":"nonpayable","inputs":[{"name":"merchant","type":"address"}],"outputs":[]},
{"type":"function","name":"isApprovedMerchant","stateMutability":"view","inputs":[{"name":"merchant","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"addAuthorizedAccount","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"removeAuthorizedAccount","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"}],"outputs":[]},
{"type":"function","name":"isAuthorizedAccount","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getAuthorizedAccounts","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"updateReserve","stateMutability":"nonpayable","inputs":[{"name":"newReserve","type":"address"}],"outputs":[]},
{"type":"function","name":"reserve","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"totalEurosInReserve","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"custodyBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
{"type":"function","name":"registerAct","stateMutability":"nonpayable","inputs":[{"name":"volunteer","type":"address"},{"name":"organism","type":"address"},{"name":"description","type":"string"},{"name":"reward","type":"uint256"}],"outputs":[]},
{"type":"function","name":"removeExpiredActs","stateMutability":"nonpayable","inputs":[{"name":"volunteer","type":"address"}],"outputs":[{"name":"removed","type":"uint256"}]},
{"type":"function","name":"getActsByVolunteer","stateMutability":"view","inputs":[{"name":"volunteer","type":"address"}],"outputs":[{"name":"organisms","type":"address[]"},{"name":"descriptions","type":"string[]"},{"name":"rewards","type":"uint256[]"},{"name":"timestamps","type":"uint256[]"}]}
]`

var contractABI = nativecommon.MustParseABI("ledger", ABIJSON)

// ABI returns the parsed call interface.
func ABI() abi.ABI { return contractABI }

// Pack encodes a call. Addresses may be passed as crypto.Address and amounts
// as *uint256.Int.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return nativecommon.Pack(contractABI, method, args...)
}

// Unpack decodes the return data of method.
func Unpack(method string, data []byte) ([]interface{}, error) {
	return contractABI.Unpack(method, data)
}

// DecodeActs turns getActsByVolunteer return data into act records.
func DecodeActs(data []byte) ([]VolunteerAct, error) {
	values, err := Unpack(MethodGetActsByVolunteer, data)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("ledger: unexpected acts payload with %d fields", len(values))
	}
	organisms, ok1 := values[0].([]common.Address)
	descriptions, ok2 := values[1].([]string)
	rewards, ok3 := values[2].([]*big.Int)
	timestamps, ok4 := values[3].([]*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("ledger: malformed acts payload")
	}
	n := len(organisms)
	if len(descriptions) != n || len(rewards) != n || len(timestamps) != n {
		return nil, fmt.Errorf("ledger: acts payload length mismatch")
	}
	acts := make([]VolunteerAct, n)
	for i := 0; i < n; i++ {
		reward, overflow := uint256.FromBig(rewards[i])
		if overflow {
			return nil, ErrAmountOverflow
		}
		acts[i] = VolunteerAct{
			Organism:    crypto.FromCommon(organisms[i]),
			Description: descriptions[i],
			Reward:      reward,
			Timestamp:   timestamps[i].Uint64(),
		}
	}
	return acts, nil
}

// EncodeActs is the inverse of DecodeActs.
func EncodeActs(acts []VolunteerAct) ([]byte, error) {
	organisms := make([]common.Address, len(acts))
	descriptions := make([]string, len(acts))
	rewards := make([]*big.Int, len(acts))
	timestamps := make([]*big.Int, len(acts))
	for i, act := range acts {
		organisms[i] = act.Organism.Common()
		descriptions[i] = act.Description
		rewards[i] = orZero(act.Reward).ToBig()
		timestamps[i] = new(big.Int).SetUint64(act.Timestamp)
	}
	method := contractABI.Methods[MethodGetActsByVolunteer]
	return method.Outputs.Pack(organisms, descriptions, rewards, timestamps)
}
