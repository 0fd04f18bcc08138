package volunteering

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"eusko/crypto"
	"eusko/gateway/middleware"
	"eusko/observability"
)

const (
	routeList     = "list"
	routeUpdate   = "update"
	routeRegister = "register"

	// DefaultOperatorScope guards the on-chain registration endpoint.
	DefaultOperatorScope = "volunteering:operator"

	defaultMaxBodyBytes = 64 << 10
	shutdownGrace       = 5 * time.Second
)

type ServerConfig struct {
	Auth          middleware.AuthConfig
	CORS          middleware.CORSConfig
	RateLimit     middleware.RateLimit
	OperatorScope string
	MaxBodyBytes  int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Telemetry     bool
}

// Server exposes the opportunity catalogue over HTTP.
type Server struct {
	store   Store
	ledger  Ledger
	cfg     ServerConfig
	logger  *slog.Logger
	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	obs     *middleware.Observability

	// registerMu serialises bridge submissions so one act is never sent twice.
	registerMu sync.Mutex
}

// NewServer wires the handlers. ledger may be nil, in which case merchant
// checks and on-chain registration answer 503.
func NewServer(store Store, ledger Ledger, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OperatorScope == "" {
		cfg.OperatorScope = DefaultOperatorScope
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	limits := map[string]middleware.RateLimit{}
	if cfg.RateLimit.RatePerSecond > 0 {
		limits["api"] = cfg.RateLimit
	}
	return &Server{
		store:   store,
		ledger:  ledger,
		cfg:     cfg,
		logger:  logger,
		auth:    middleware.NewAuthenticator(cfg.Auth, logger),
		limiter: middleware.NewRateLimiter(limits, logger),
		obs: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   "eusko-volunteering",
			MetricsPrefix: "eusko_volunteering_http",
			Enabled:       true,
		}, logger),
	}
}

// Authenticator exposes the token verifier, mainly so tests can pin its clock.
func (s *Server) Authenticator() *middleware.Authenticator { return s.auth }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORS(s.cfg.CORS))
	r.Route("/api/volunteering", func(r chi.Router) {
		r.Use(s.limiter.Middleware("api"), middleware.BodyLimit(s.cfg.MaxBodyBytes))
		r.With(s.obs.Middleware(routeList)).Get("/", s.handleList)
		r.With(s.obs.Middleware(routeUpdate), s.auth.Middleware()).Put("/", s.handleUpdate)
		r.With(s.obs.Middleware(routeRegister), s.auth.Middleware(s.cfg.OperatorScope)).
			Post("/{id}/register", s.handleRegister)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.obs.MetricsHandler())
	if !s.cfg.Telemetry {
		return r
	}
	return otelhttp.NewHandler(r, "eusko-volunteering")
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
		s.logger.Info("volunteering api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type updateRequest struct {
	ActID     uint64  `json:"actId"`
	NewStatus string  `json:"newStatus"`
	Volunteer *string `json:"volunteer,omitempty"`
}

type actResponse struct {
	Message string      `json:"message"`
	Act     Opportunity `json:"act"`
	TxHash  string      `json:"txHash,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ops, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list opportunities", "error", err, "requestId", middleware.RequestID(r.Context()))
		s.fail(w, routeList, http.StatusInternalServerError, "server error while reading acts")
		return
	}
	s.respond(w, routeList, http.StatusOK, ops)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.fail(w, routeUpdate, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.fail(w, routeUpdate, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.ActID == 0 || req.NewStatus == "" {
		s.fail(w, routeUpdate, http.StatusBadRequest, "actId and newStatus are required")
		return
	}
	target, err := ParseStatus(req.NewStatus)
	if err != nil {
		s.fail(w, routeUpdate, http.StatusBadRequest, err.Error())
		return
	}
	transition := Transition{Target: target, Volunteer: req.Volunteer}

	ctx := r.Context()
	var update func(*Opportunity) error
	if s.auth.Enabled() {
		caller, _ := middleware.Subject(ctx)
		transition.Caller = caller
		if status, msg, ok := s.prepareTransition(ctx, req.ActID, &transition); !ok {
			s.fail(w, routeUpdate, status, msg)
			return
		}
		update = func(op *Opportunity) error {
			if err := Check(*op, transition); err != nil {
				return err
			}
			Apply(op, transition)
			return nil
		}
	} else {
		// Without authentication the catalogue is edited as given.
		update = func(op *Opportunity) error {
			Apply(op, transition)
			return nil
		}
	}

	act, err := s.store.Update(ctx, req.ActID, update)
	if err != nil {
		status, msg := s.classify(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("update opportunity", "actId", req.ActID, "error", err,
				"requestId", middleware.RequestID(ctx))
		}
		s.fail(w, routeUpdate, status, msg)
		return
	}
	observability.Volunteering().RecordTransition(string(act.Status))
	s.logger.Info("opportunity updated", "actId", act.ID, "status", act.Status, "caller", transition.Caller)
	s.respond(w, routeUpdate, http.StatusOK, actResponse{Message: "act updated", Act: act})
}

// prepareTransition resolves the merchant flag for organism steps before the
// store is locked, so no RPC happens inside a write.
func (s *Server) prepareTransition(ctx context.Context, id uint64, t *Transition) (int, string, bool) {
	if t.Caller == "" {
		return http.StatusUnauthorized, "authenticated caller required", false
	}
	switch t.Target {
	case StatusValidated, StatusFinished, StatusReadyOnChain:
	default:
		return 0, "", true
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		status, msg := s.classify(err)
		return status, msg, false
	}
	if err := Check(current, Transition{Caller: t.Caller, Target: t.Target, Merchant: true}); err != nil {
		status, msg := s.classify(err)
		return status, msg, false
	}
	if s.ledger == nil {
		return http.StatusServiceUnavailable, "ledger unavailable", false
	}
	caller, err := crypto.ParseAddress(t.Caller)
	if err != nil {
		return http.StatusForbidden, ErrNotOrganism.Error(), false
	}
	approved, err := s.ledger.IsApprovedMerchant(ctx, caller)
	if err != nil {
		s.logger.Warn("merchant lookup failed", "caller", t.Caller, "error", err)
		return http.StatusBadGateway, "ledger unavailable", false
	}
	t.Merchant = approved
	return 0, "", true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		s.fail(w, routeRegister, http.StatusBadRequest, "invalid act id")
		return
	}
	if s.ledger == nil {
		s.fail(w, routeRegister, http.StatusServiceUnavailable, "ledger unavailable")
		return
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	ctx := r.Context()
	act, err := s.store.Get(ctx, id)
	if err != nil {
		status, msg := s.classify(err)
		s.fail(w, routeRegister, status, msg)
		return
	}
	if act.Status != StatusReadyOnChain {
		s.fail(w, routeRegister, http.StatusConflict, "act must be readyOnChain to be registered")
		return
	}
	receipt, err := s.ledger.RegisterAct(ctx, act)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrRegistrationRejected):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, ErrNoOperator):
			status = http.StatusServiceUnavailable
		case errors.Is(err, ErrMissingVolunteer), errors.Is(err, crypto.ErrInvalidAddress):
			status = http.StatusConflict
		}
		s.logger.Warn("registerAct failed", "actId", id, "error", err)
		s.fail(w, routeRegister, status, err.Error())
		return
	}
	act, err = s.store.Update(ctx, id, func(op *Opportunity) error {
		op.Status = StatusRegisteredOnChain
		return nil
	})
	if err != nil {
		// The act is on chain; only the catalogue write failed.
		s.logger.Error("mark registered", "actId", id, "txHash", receipt.TxHash.Hex(), "error", err)
		s.fail(w, routeRegister, http.StatusInternalServerError, "registered on chain but failed to update act")
		return
	}
	observability.Volunteering().RecordTransition(string(act.Status))
	s.logger.Info("act registered on chain", "actId", id, "txHash", receipt.TxHash.Hex(), "height", receipt.Height)
	s.respond(w, routeRegister, http.StatusOK, actResponse{
		Message: "act registered on chain",
		Act:     act,
		TxHash:  receipt.TxHash.Hex(),
	})
}

func (s *Server) classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "act not found"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrNotOrganism), errors.Is(err, ErrNotApprovedMerchant), errors.Is(err, ErrBridgeOnly):
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "server error while updating acts"
	}
}

func (s *Server) respond(w http.ResponseWriter, route string, status int, body interface{}) {
	observability.Volunteering().ObserveRequest(route, status)
	writeJSON(w, status, body)
}

func (s *Server) fail(w http.ResponseWriter, route string, status int, message string) {
	s.respond(w, route, status, messageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
