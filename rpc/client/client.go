// Package client is a typed JSON-RPC client for the Eusko node.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"eusko/core/types"
	"eusko/crypto"
	"eusko/rpc"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64

	mu      sync.Mutex
	chainID *uint64
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{endpoint: endpoint, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one JSON-RPC call and decodes the result into out. Server side
// failures are returned as *rpc.RPCError.
func (c *Client) Do(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	id := c.nextID.Add(1)
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc client: %s: %w", method, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("rpc client: %s: read response: %w", method, err)
	}

	var envelope struct {
		ID     json.RawMessage `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *rpc.RPCError   `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("rpc client: %s: status %d: invalid response: %w", method, resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if string(envelope.ID) != strconv.FormatUint(id, 10) {
		return fmt.Errorf("rpc client: %s: response id %s does not match request %d", method, envelope.ID, id)
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt := new(types.Receipt)
	if err := c.Do(ctx, rpc.MethodSendTransaction, receipt, tx); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Call runs a read-only call and returns the raw ABI return data.
func (c *Client) Call(ctx context.Context, from, to crypto.Address, data []byte) ([]byte, error) {
	params := rpc.CallParams{To: to.String(), Data: hexutil.Bytes(data)}
	if !from.IsZero() {
		params.From = from.String()
	}
	var result rpc.CallResult
	if err := c.Do(ctx, rpc.MethodCall, &result, params); err != nil {
		return nil, err
	}
	return result.Return, nil
}

func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt := new(types.Receipt)
	if err := c.Do(ctx, rpc.MethodGetReceipt, receipt, hash.Hex()); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *Client) Nonce(ctx context.Context, addr crypto.Address) (uint64, error) {
	var result rpc.NonceResult
	if err := c.Do(ctx, rpc.MethodGetNonce, &result, addr.String()); err != nil {
		return 0, err
	}
	return result.Nonce, nil
}

func (c *Client) ChainInfo(ctx context.Context) (*rpc.ChainInfo, error) {
	info := new(rpc.ChainInfo)
	if err := c.Do(ctx, rpc.MethodChainInfo, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) Events(ctx context.Context, params rpc.EventsParams) (*rpc.EventsResult, error) {
	result := new(rpc.EventsResult)
	if err := c.Do(ctx, rpc.MethodEvents, result, params); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) LedgerSummary(ctx context.Context) (*rpc.LedgerSummary, error) {
	summary := new(rpc.LedgerSummary)
	if err := c.Do(ctx, rpc.MethodLedgerSummary, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ChainID returns the node's chain id, fetched once.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != nil {
		return *c.chainID, nil
	}
	info, err := c.ChainInfo(ctx)
	if err != nil {
		return 0, err
	}
	c.chainID = &info.ChainID
	return info.ChainID, nil
}

// SignAndSend builds a transaction from key's current nonce, signs it and
// submits it.
func (c *Client) SignAndSend(ctx context.Context, key *crypto.PrivateKey, to crypto.Address, data []byte) (*types.Receipt, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	from := key.PubKey().Address()
	nonce, err := c.Nonce(ctx, from)
	if err != nil {
		return nil, err
	}
	tx := &types.Transaction{ChainID: chainID, Nonce: nonce, To: to, Data: data}
	if err := tx.Sign(key.PrivateKey); err != nil {
		return nil, err
	}
	return c.SendTransaction(ctx, tx)
}
