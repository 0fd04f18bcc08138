package core

import (
	"github.com/holiman/uint256"

	"eusko/core/contract"
	"eusko/crypto"
	"eusko/native/multisig"
)

type multisigContract struct{}

func (multisigContract) Name() string { return ContractMultisig }

// envCaller routes executed gateway transactions back through the router.
type envCaller struct{ env *contract.Env }

func (c envCaller) Call(from, to crypto.Address, value *uint256.Int, data []byte) ([]byte, error) {
	return c.env.Call(from, to, value, data)
}

func (multisigContract) Run(env *contract.Env, input []byte) ([]byte, error) {
	method, raw, err := contract.Decode(multisig.ABI(), input)
	if err != nil {
		return nil, err
	}
	args := contract.Args(raw)
	engine := bindMultisig(env.State, env.Emitter, envCaller{env: env})
	out := method.Outputs
	caller := env.Caller

	switch method.Name {
	case multisig.MethodThreshold:
		threshold, err := engine.Threshold()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(threshold))
	case multisig.MethodTransactionCount:
		count, err := engine.TransactionCount()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(count))
	case multisig.MethodGetSigners:
		signers, err := engine.Signers()
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigAddresses(signers))
	case multisig.MethodIsSigner:
		account, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		ok, err := engine.IsSigner(account)
		if err != nil {
			return nil, err
		}
		return out.Pack(ok)
	case multisig.MethodTransactions:
		index, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		tx, err := engine.Transaction(index)
		if err != nil {
			return nil, err
		}
		return multisig.EncodeTransaction(tx)
	case multisig.MethodIsConfirmed:
		index, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		signer, err := args.Address(1)
		if err != nil {
			return nil, err
		}
		ok, err := engine.IsConfirmed(index, signer)
		if err != nil {
			return nil, err
		}
		return out.Pack(ok)
	case multisig.MethodSubmitTransaction:
		target, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		value, err := args.Amount(1)
		if err != nil {
			return nil, err
		}
		data, err := args.Bytes(2)
		if err != nil {
			return nil, err
		}
		index, err := engine.SubmitTransaction(caller, target, value, data)
		if err != nil {
			return nil, err
		}
		return out.Pack(contract.BigUint(index))
	case multisig.MethodConfirmTransaction:
		index, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		return nil, engine.ConfirmTransaction(caller, index)
	case multisig.MethodExecuteTransaction:
		index, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		result, err := engine.ExecuteTransaction(caller, index)
		if err != nil {
			return nil, err
		}
		return out.Pack(append([]byte{}, result...))
	case multisig.MethodAddSigner, multisig.MethodRemoveSigner:
		signer, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		if method.Name == multisig.MethodAddSigner {
			return nil, engine.AddSigner(caller, signer)
		}
		return nil, engine.RemoveSigner(caller, signer)
	case multisig.MethodChangeThreshold:
		threshold, err := args.Uint64(0)
		if err != nil {
			return nil, err
		}
		return nil, engine.ChangeThreshold(caller, threshold)
	}
	return nil, contract.ErrUnknownMethod
}
