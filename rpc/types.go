package rpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"eusko/core/events"
	"eusko/core/types"
)

const jsonRPCVersion = "2.0"

// Method names served on POST /.
const (
	MethodSendTransaction = "eusko_sendTransaction"
	MethodCall            = "eusko_call"
	MethodGetReceipt      = "eusko_getReceipt"
	MethodGetNonce        = "eusko_getNonce"
	MethodChainInfo       = "eusko_chainInfo"
	MethodEvents          = "eusko_events"
	MethodLedgerSummary   = "eusko_ledgerSummary"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
	CodeUnauthorized   = -32001
	CodeNotFound       = -32004
	CodeRejected       = -32010
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id,omitempty"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// ErrorData accompanies rejected transactions and failed calls.
type ErrorData struct {
	Kind string `json:"kind"`
}

// CallParams is the single parameter of eusko_call. From defaults to the
// zero address.
type CallParams struct {
	From string        `json:"from,omitempty"`
	To   string        `json:"to"`
	Data hexutil.Bytes `json:"data"`
}

// CallResult carries the raw ABI return data.
type CallResult struct {
	Return hexutil.Bytes `json:"return"`
}

// EventsParams pages the event log. Type and Address filter the page.
type EventsParams struct {
	From    uint64 `json:"from"`
	Limit   uint64 `json:"limit,omitempty"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address,omitempty"`
}

// EventsResult returns a page of records and the cursor of the next page.
type EventsResult struct {
	Events []events.Record `json:"events"`
	Next   uint64          `json:"next"`
}

type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

type ChainInfo struct {
	ChainID     uint64            `json:"chainId"`
	Network     string            `json:"network"`
	Height      uint64            `json:"height"`
	GenesisHash common.Hash       `json:"genesisHash"`
	Contracts   map[string]string `json:"contracts"`
}

// LedgerSummary reports the backing figures in base units.
type LedgerSummary struct {
	TotalSupply    string `json:"totalSupply"`
	TotalReserve   string `json:"totalReserve"`
	CustodyBalance string `json:"custodyBalance"`
	MerchantPots   string `json:"merchantPots"`
	Owner          string `json:"owner"`
	Reserve        string `json:"reserve"`
	Backed         bool   `json:"backed"`
}

// SendTransactionResult is the receipt of an applied transaction.
type SendTransactionResult = types.Receipt
