package core

import (
	"github.com/ethereum/go-ethereum/accounts/abi"

	"eusko/core/contract"
	"eusko/crypto"
	"eusko/native/ledger"
)

// ledgerContract holds reference units at its own address.
type ledgerContract struct{}

func (ledgerContract) Name() string { return ContractLedger }

func (c ledgerContract) Run(env *contract.Env, input []byte) ([]byte, error) {
	method, raw, err := contract.Decode(ledger.ABI(), input)
	if err != nil {
		return nil, err
	}
	args := contract.Args(raw)
	engine := bindLedger(env.State, env.Emitter, env.Now)
	if ret, handled, err := c.view(engine, method, args); handled {
		return ret, err
	}
	return c.mutate(env, engine, method, args)
}

func (ledgerContract) view(engine *ledger.Engine, method *abi.Method, args contract.Args) ([]byte, bool, error) {
	out := method.Outputs
	switch method.Name {
	case ledger.MethodName:
		ret, err := out.Pack(engine.Name())
		return ret, true, err
	case ledger.MethodSymbol:
		ret, err := out.Pack(engine.Symbol())
		return ret, true, err
	case ledger.MethodDecimals:
		ret, err := out.Pack(engine.Decimals())
		return ret, true, err
	case ledger.MethodTotalSupply:
		supply, err := engine.TotalSupply()
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.Big(supply))
		return ret, true, err
	case ledger.MethodTotalReserve:
		reserve, err := engine.TotalReserve()
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.Big(reserve))
		return ret, true, err
	case ledger.MethodCustodyBalance:
		custody, err := engine.CustodyBalance()
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.Big(custody))
		return ret, true, err
	case ledger.MethodBalanceOf, ledger.MethodMerchantBalance:
		account, err := args.Address(0)
		if err != nil {
			return nil, true, err
		}
		read := engine.BalanceOf
		if method.Name == ledger.MethodMerchantBalance {
			read = engine.MerchantBalance
		}
		bal, err := read(account)
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.Big(bal))
		return ret, true, err
	case ledger.MethodAllowance:
		owner, err := args.Address(0)
		if err != nil {
			return nil, true, err
		}
		spender, err := args.Address(1)
		if err != nil {
			return nil, true, err
		}
		allowance, err := engine.Allowance(owner, spender)
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.Big(allowance))
		return ret, true, err
	case ledger.MethodIsApprovedMerchant, ledger.MethodIsAuthorizedAccount:
		account, err := args.Address(0)
		if err != nil {
			return nil, true, err
		}
		check := engine.IsApprovedMerchant
		if method.Name == ledger.MethodIsAuthorizedAccount {
			check = engine.IsAuthorizedAccount
		}
		ok, err := check(account)
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(ok)
		return ret, true, err
	case ledger.MethodGetMerchants, ledger.MethodGetAuthorizedAccounts:
		list := engine.Merchants
		if method.Name == ledger.MethodGetAuthorizedAccounts {
			list = engine.AuthorizedAccounts
		}
		accounts, err := list()
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(contract.BigAddresses(accounts))
		return ret, true, err
	case ledger.MethodOwner, ledger.MethodReserve:
		read := engine.Owner
		if method.Name == ledger.MethodReserve {
			read = engine.Reserve
		}
		addr, err := read()
		if err != nil {
			return nil, true, err
		}
		ret, err := out.Pack(addr.Common())
		return ret, true, err
	case ledger.MethodGetActsByVolunteer:
		volunteer, err := args.Address(0)
		if err != nil {
			return nil, true, err
		}
		acts, err := engine.ActsByVolunteer(volunteer)
		if err != nil {
			return nil, true, err
		}
		ret, err := ledger.EncodeActs(acts)
		return ret, true, err
	}
	return nil, false, nil
}

func (ledgerContract) mutate(env *contract.Env, engine *ledger.Engine, method *abi.Method, args contract.Args) ([]byte, error) {
	caller := env.Caller
	out := method.Outputs

	switch method.Name {
	case ledger.MethodTransfer, ledger.MethodApprove:
		to, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		amount, err := args.Amount(1)
		if err != nil {
			return nil, err
		}
		if method.Name == ledger.MethodTransfer {
			err = engine.Transfer(caller, to, amount)
		} else {
			err = engine.Approve(caller, to, amount)
		}
		if err != nil {
			return nil, err
		}
		return out.Pack(true)
	case ledger.MethodTransferFrom:
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
		if err := engine.TransferFrom(caller, from, to, amount); err != nil {
			return nil, err
		}
		return out.Pack(true)
	case ledger.MethodMintWithEURC, ledger.MethodBurn:
		account, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		amount, err := args.Amount(1)
		if err != nil {
			return nil, err
		}
		if method.Name == ledger.MethodMintWithEURC {
			err = engine.MintWithReference(caller, account, amount)
		} else {
			err = engine.Burn(caller, account, amount)
		}
		return nil, err
	case ledger.MethodRedeem:
		amount, err := args.Amount(0)
		if err != nil {
			return nil, err
		}
		return nil, engine.Redeem(caller, amount)
	case ledger.MethodSpend:
		merchant, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		amount, err := args.Amount(1)
		if err != nil {
			return nil, err
		}
		return nil, engine.Spend(caller, merchant, amount)
	case ledger.MethodClaimFunds:
		claimed, err := engine.ClaimFunds(caller)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.Big(claimed))
	case ledger.MethodAddMerchant, ledger.MethodRemoveMerchant,
		ledger.MethodAddAuthorizedAccount, ledger.MethodRemoveAuthorizedAccount,
		ledger.MethodUpdateReserve, ledger.MethodTransferOwnership:
		account, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		var op func(caller, account crypto.Address) error
		switch method.Name {
		case ledger.MethodAddMerchant:
			op = engine.AddMerchant
		case ledger.MethodRemoveMerchant:
			op = engine.RemoveMerchant
		case ledger.MethodAddAuthorizedAccount:
			op = engine.AddAuthorizedAccount
		case ledger.MethodRemoveAuthorizedAccount:
			op = engine.RemoveAuthorizedAccount
		case ledger.MethodUpdateReserve:
			op = engine.UpdateReserve
		default:
			op = engine.TransferOwnership
		}
		return nil, op(caller, account)
	case ledger.MethodRegisterAct:
		volunteer, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		organism, err := args.Address(1)
		if err != nil {
			return nil, err
		}
		description, err := args.String(2)
		if err != nil {
			return nil, err
		}
		reward, err := args.Amount(3)
		if err != nil {
			return nil, err
		}
		_, err = engine.RegisterAct(caller, volunteer, organism, description, reward)
		return nil, err
	case ledger.MethodRemoveExpiredActs:
		volunteer, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		removed, err := engine.RemoveExpiredActs(caller, volunteer)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(uint64(len(removed))))
	}
	return nil, contract.ErrUnknownMethod
}
