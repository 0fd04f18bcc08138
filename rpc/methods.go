package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"eusko/core"
	coreerrors "eusko/core/errors"
	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
	"eusko/observability"
	telemetry "eusko/observability/otel"
)

// MaxEventsPage caps a single eusko_events page.
const MaxEventsPage = 1000

func (s *Server) dispatch(ctx context.Context, req *RPCRequest) (result interface{}, rpcErr *RPCError) {
	_, span := telemetry.Tracer("rpc").Start(ctx, req.Method)
	defer span.End()
	start := time.Now()
	defer func() {
		observability.ModuleMetrics().Observe(req.Method, rpcErr != nil, time.Since(start))
		if rpcErr != nil {
			span.SetStatus(codes.Error, rpcErr.Message)
			span.SetAttributes(attribute.Int("rpc.error_code", rpcErr.Code))
		}
	}()

	switch req.Method {
	case MethodSendTransaction:
		return s.sendTransaction(req.Params)
	case MethodCall:
		return s.call(req.Params)
	case MethodGetReceipt:
		return s.getReceipt(req.Params)
	case MethodGetNonce:
		return s.getNonce(req.Params)
	case MethodChainInfo:
		return s.chainInfo()
	case MethodEvents:
		return s.events(req.Params)
	case MethodLedgerSummary:
		return s.ledgerSummary()
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method %s", req.Method)}
	}
}

func (s *Server) sendTransaction(params []json.RawMessage) (interface{}, *RPCError) {
	tx := new(types.Transaction)
	if err := decodeSingle(params, tx); err != nil {
		return nil, err
	}
	receipt, err := s.backend.ApplyTransaction(tx)
	if err != nil {
		// Envelope rejections never reach a contract.
		return nil, rejection(err)
	}
	return receipt, nil
}

func (s *Server) call(params []json.RawMessage) (interface{}, *RPCError) {
	var p CallParams
	if err := decodeSingle(params, &p); err != nil {
		return nil, err
	}
	to, err := crypto.ParseAddress(p.To)
	if err != nil {
		return nil, invalidParams("to: %v", err)
	}
	var from crypto.Address
	if strings.TrimSpace(p.From) != "" {
		if from, err = crypto.ParseAddress(p.From); err != nil {
			return nil, invalidParams("from: %v", err)
		}
	}
	ret, err := s.backend.Call(from, to, p.Data)
	if err != nil {
		return nil, rejection(err)
	}
	return CallResult{Return: ret}, nil
}

func (s *Server) getReceipt(params []json.RawMessage) (interface{}, *RPCError) {
	var raw string
	if err := decodeSingle(params, &raw); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(raw, "0x") || len(raw) != 66 {
		return nil, invalidParams("transaction hash must be 32 bytes of 0x hex")
	}
	receipt, err := s.backend.Receipt(common.HexToHash(raw))
	if err != nil {
		return nil, rejection(err)
	}
	return receipt, nil
}

func (s *Server) getNonce(params []json.RawMessage) (interface{}, *RPCError) {
	var raw string
	if err := decodeSingle(params, &raw); err != nil {
		return nil, err
	}
	addr, err := crypto.ParseAddress(raw)
	if err != nil {
		return nil, invalidParams("address: %v", err)
	}
	nonce, err := s.backend.Nonce(addr)
	if err != nil {
		return nil, internal(err)
	}
	return NonceResult{Address: addr.String(), Nonce: nonce}, nil
}

func (s *Server) chainInfo() (interface{}, *RPCError) {
	height, err := s.backend.Height()
	if err != nil {
		return nil, internal(err)
	}
	contracts := make(map[string]string)
	for name, addr := range s.backend.Contracts() {
		contracts[name] = addr.String()
	}
	return ChainInfo{
		ChainID:     s.backend.ChainID(),
		Network:     s.cfg.Network,
		Height:      height,
		GenesisHash: s.backend.GenesisHash(),
		Contracts:   contracts,
	}, nil
}

func (s *Server) events(params []json.RawMessage) (interface{}, *RPCError) {
	var p EventsParams
	if len(params) > 0 {
		if err := decodeSingle(params, &p); err != nil {
			return nil, err
		}
	}
	if p.Limit == 0 || p.Limit > MaxEventsPage {
		p.Limit = MaxEventsPage
	}
	if p.Address != "" {
		addr, err := crypto.ParseAddress(p.Address)
		if err != nil {
			return nil, invalidParams("address: %v", err)
		}
		p.Address = addr.String()
	}
	records, err := s.backend.Events(p.From, p.Limit)
	if err != nil {
		return nil, internal(err)
	}
	result := EventsResult{Events: make([]events.Record, 0, len(records)), Next: p.From}
	for _, rec := range records {
		result.Next = rec.Sequence + 1
		if rec.Matches(p.Type, p.Address) {
			result.Events = append(result.Events, rec)
		}
	}
	return result, nil
}

func (s *Server) ledgerSummary() (interface{}, *RPCError) {
	summary, err := s.backend.LedgerSummary()
	if err != nil {
		return nil, internal(err)
	}
	return LedgerSummary{
		TotalSupply:    summary.TotalSupply.Dec(),
		TotalReserve:   summary.TotalReserve.Dec(),
		CustodyBalance: summary.CustodyBalance.Dec(),
		MerchantPots:   summary.Escrowed.Dec(),
		Owner:          summary.Owner.String(),
		Reserve:        summary.Reserve.String(),
		Backed:         summary.TotalSupply.Eq(summary.TotalReserve) && !summary.CustodyBalance.Lt(summary.TotalReserve),
	}, nil
}

func decodeSingle(params []json.RawMessage, dst interface{}) *RPCError {
	if len(params) != 1 {
		return invalidParams("expected exactly one parameter")
	}
	if err := json.Unmarshal(params[0], dst); err != nil {
		return invalidParams("invalid parameter: %v", err)
	}
	return nil
}

func invalidParams(format string, args ...interface{}) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func internal(err error) *RPCError {
	return &RPCError{Code: CodeServerError, Message: err.Error(), Data: ErrorData{Kind: coreerrors.KindInternal.String()}}
}

// rejection maps chain errors onto JSON-RPC codes, keeping the failure kind
// and the verbatim message.
func rejection(err error) *RPCError {
	kind := coreerrors.KindOf(err)
	code := CodeRejected
	switch {
	case errors.Is(err, core.ErrReceiptNotFound), kind == coreerrors.KindNotFound:
		code = CodeNotFound
	case errors.Is(err, core.ErrInvalidSignature):
		code = CodeUnauthorized
	case kind == coreerrors.KindInternal:
		code = CodeServerError
	}
	return &RPCError{Code: code, Message: err.Error(), Data: ErrorData{Kind: kind.String()}}
}
