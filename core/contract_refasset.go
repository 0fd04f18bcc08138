package core

import (
	"eusko/core/contract"
	"eusko/native/refasset"
)

type refAssetContract struct{}

func (refAssetContract) Name() string { return ContractRefAsset }

func (refAssetContract) Run(env *contract.Env, input []byte) ([]byte, error) {
	method, raw, err := contract.Decode(refasset.ABI(), input)
	if err != nil {
		return nil, err
	}
	args := contract.Args(raw)
	engine := bindRefAsset(env.State, env.Emitter)
	out := method.Outputs

	switch method.Name {
	case refasset.MethodName:
		return out.Pack(refasset.Name)
	case refasset.MethodSymbol:
		return out.Pack(refasset.Symbol)
	case refasset.MethodDecimals:
		return out.Pack(uint8(refasset.Decimals))
	case refasset.MethodTotalSupply:
		supply, err := engine.TotalSupply()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.Big(supply))
	case refasset.MethodBalanceOf:
		account, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		bal, err := engine.BalanceOf(account)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.Big(bal))
	case refasset.MethodAllowance:
		owner, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		spender, err := args.Address(1)
		if err != nil {
			return nil, err
		}
		allowance, err := engine.Allowance(owner, spender)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.Big(allowance))
	case refasset.MethodOwner:
		owner, err := engine.Owner()
		if err != nil {
			return nil, err
		}
		return out.Pack(owner.Common())
	case refasset.MethodTransfer, refasset.MethodApprove, refasset.MethodMint, refasset.MethodBurn:
		target, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		amount, err := args.Amount(1)
		if err != nil {
			return nil, err
		}
		switch method.Name {
		case refasset.MethodTransfer:
			err = engine.Transfer(env.Caller, target, amount)
		case refasset.MethodApprove:
			err = engine.Approve(env.Caller, target, amount)
		case refasset.MethodMint:
			err = engine.Mint(env.Caller, target, amount)
		default:
			err = engine.Burn(env.Caller, target, amount)
		}
		if err != nil {
			return nil, err
		}
		return out.Pack(okOutputs(len(method.Outputs.NonIndexed()))...)
	case refasset.MethodTransferFrom:
		from, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		to, err := args.Address(1)
		if err != nil {
			return nil, err
		}
		amount, err := args.Amount(2)
		if err != nil {
			return nil, err
		}
		if err := engine.TransferFrom(env.Caller, from, to, amount); err != nil {
			return nil, err
		}
		return out.Pack(true)
	}
	return nil, contract.ErrUnknownMethod
}

// okOutputs returns the success flag for methods that report one.
func okOutputs(n int) []interface{} {
	if n == 0 {
		return nil
	}
	return []interface{}{true}
}
