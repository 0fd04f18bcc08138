package types

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"eusko/crypto"
)

var (
	ErrMissingSignature = errors.New("types: transaction is not signed")
	ErrInvalidSignature = errors.New("types: invalid transaction signature")
)

// Transaction is a signed call from an account into a contract. Data is the
// ABI encoded call payload (4-byte selector followed by arguments).
type Transaction struct {
	ChainID uint64         `json:"chainId"`
	Nonce   uint64         `json:"nonce"`
	To      crypto.Address `json:"to"`
	Value   *big.Int       `json:"value,omitempty"`
	Data    hexutil.Bytes  `json:"data"`

	R *big.Int `json:"r,omitempty"`
	S *big.Int `json:"s,omitempty"`
	V *big.Int `json:"v,omitempty"`

	from *crypto.Address
}

type signingPayload struct {
	ChainID uint64
	Nonce   uint64
	To      []byte
	Value   *big.Int
	Data    []byte
}

// Hash returns the keccak256 digest of the RLP encoded unsigned fields.
func (tx *Transaction) Hash() (common.Hash, error) {
	payload := signingPayload{
		ChainID: tx.ChainID,
		Nonce:   tx.Nonce,
		To:      tx.To.Bytes(),
		Value:   tx.ValueOrZero(),
		Data:    tx.Data,
	}
	encoded, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(ethcrypto.Keccak256(encoded)), nil
}

// ValueOrZero never returns nil.
func (tx *Transaction) ValueOrZero() *big.Int {
	if tx.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(tx.Value)
}

func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := ethcrypto.Sign(hash.Bytes(), privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the signer of the transaction.
func (tx *Transaction) From() (crypto.Address, error) {
	if tx.from != nil {
		return *tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return crypto.Address{}, ErrMissingSignature
	}
	if tx.V.Uint64() < 27 || tx.V.Uint64() > 28 || tx.R.BitLen() > 256 || tx.S.BitLen() > 256 {
		return crypto.Address{}, ErrInvalidSignature
	}
	hash, err := tx.Hash()
	if err != nil {
		return crypto.Address{}, err
	}
	sig := make([]byte, 65)
	tx.R.FillBytes(sig[:32])
	tx.S.FillBytes(sig[32:64])
	sig[64] = byte(tx.V.Uint64() - 27)
	pubKey, err := ethcrypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return crypto.Address{}, errors.Join(ErrInvalidSignature, err)
	}
	from := crypto.FromCommon(ethcrypto.PubkeyToAddress(*pubKey))
	tx.from = &from
	return from, nil
}
