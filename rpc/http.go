package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"eusko/core/events"
	"eusko/core/types"
	"eusko/crypto"
	"eusko/gateway/middleware"
	"eusko/native/ledger"
)

const (
	defaultMaxRequestBytes = 1 << 20 // 1 MiB
	shutdownGrace          = 5 * time.Second
)

// Backend is the chain surface the server exposes.
type Backend interface {
	ChainID() uint64
	GenesisHash() common.Hash
	Contracts() map[string]crypto.Address
	ApplyTransaction(tx *types.Transaction) (*types.Receipt, error)
	Call(from, to crypto.Address, data []byte) ([]byte, error)
	Receipt(hash common.Hash) (*types.Receipt, error)
	Nonce(addr crypto.Address) (uint64, error)
	Height() (uint64, error)
	Events(from, limit uint64) ([]events.Record, error)
	Subscribe(ctx context.Context) <-chan events.Record
	LedgerSummary() (ledger.Summary, error)
}

type ServerConfig struct {
	Network         string
	AllowedOrigins  []string
	RatePerSecond   float64
	RateBurst       int
	MaxRequestBytes int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Telemetry       bool
}

type Server struct {
	backend Backend
	cfg     ServerConfig
	logger  *slog.Logger
	limiter *middleware.RateLimiter
	obs     *middleware.Observability
}

func NewServer(backend Backend, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = defaultMaxRequestBytes
	}
	limits := map[string]middleware.RateLimit{}
	if cfg.RatePerSecond > 0 {
		limits["rpc"] = middleware.RateLimit{RatePerSecond: cfg.RatePerSecond, Burst: cfg.RateBurst}
	}
	return &Server{
		backend: backend,
		cfg:     cfg,
		logger:  logger,
		limiter: middleware.NewRateLimiter(limits, logger),
		obs: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   "eusko-rpc",
			MetricsPrefix: "eusko_http",
			Enabled:       true,
		}, logger),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}))
	r.With(s.limiter.Middleware("rpc"), s.obs.Middleware("rpc"), middleware.BodyLimit(s.cfg.MaxRequestBytes)).
		Post("/", s.handle)
	r.With(s.obs.Middleware("ws_events")).Get("/ws/events", s.handleEventsWS)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.obs.MetricsHandler())
	if !s.cfg.Telemetry {
		return r
	}
	return otelhttp.NewHandler(r, "eusko-rpc")
}

// Serve listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	height, err := s.backend.Height()
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "height": height})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxRequestBytes)
		}
		writeError(w, status, nil, &RPCError{Code: CodeInvalidRequest, Message: message})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: CodeInvalidRequest, Message: "request body required"})
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: CodeParseError, Message: "invalid JSON payload", Data: err.Error()})
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, &RPCError{Code: CodeInvalidRequest, Message: "unsupported jsonrpc version"})
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, &RPCError{Code: CodeInvalidRequest, Message: "method required"})
		return
	}

	result, rpcErr := s.dispatch(r.Context(), req)
	if rpcErr != nil {
		status := http.StatusOK
		if rpcErr.Code == CodeMethodNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, req.ID, rpcErr)
		return
	}
	writeResult(w, req.ID, result)
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, rpcErr *RPCError) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: nullID(id), Error: rpcErr})
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: nullID(id), Result: result})
}

func nullID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
