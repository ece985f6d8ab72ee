package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"TokenBank/internal/bank"
	"TokenBank/internal/ledger"
	"TokenBank/internal/model"
	"TokenBank/internal/notifier"
	"TokenBank/internal/oracle"
)

// userHeader carries the caller identity. Identity resolution itself is an
// external collaborator; this header is its interface boundary.
const userHeader = "X-Bank-User"

// Server exposes the ledger service over HTTP.
type Server struct {
	svc    *bank.Service
	router *mux.Router
}

// New builds the HTTP surface for a bank service.
func New(svc *bank.Service) *Server {
	s := &Server{svc: svc, router: mux.NewRouter()}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/deposit", s.handleDepositNative).Methods(http.MethodPost)
	api.HandleFunc("/deposit/token", s.handleDepositToken).Methods(http.MethodPost)
	api.HandleFunc("/withdraw", s.handleWithdrawNative).Methods(http.MethodPost)
	api.HandleFunc("/withdraw/token", s.handleWithdrawToken).Methods(http.MethodPost)
	api.HandleFunc("/rescue", s.handleRescue).Methods(http.MethodPost)
	api.HandleFunc("/receipt", s.handleReceipt).Methods(http.MethodPost)
	api.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// opRequest is the JSON body shared by the mutating endpoints.
type opRequest struct {
	Asset  string `json:"asset,omitempty"`
	Amount string `json:"amount"`
}

type opResponse struct {
	OK bool `json:"ok"`
}

type balanceResponse struct {
	Asset   string `json:"asset"`
	User    string `json:"user"`
	Balance string `json:"balance"`
	Display string `json:"display,omitempty"`
}

type statsResponse struct {
	NetStable       string            `json:"net_stable"`
	NetStableUSD    string            `json:"net_stable_usd"`
	TotalDeposited  string            `json:"total_deposited_stable"`
	CapRemaining    string            `json:"cap_remaining"`
	CapRemainingUSD string            `json:"cap_remaining_usd"`
	DepositCount    uint64            `json:"deposit_count"`
	WithdrawalCount uint64            `json:"withdrawal_count"`
	Aggregates      map[string]string `json:"aggregates"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Requested string `json:"requested,omitempty"`
	Available string `json:"available,omitempty"`
	Attempted string `json:"attempted,omitempty"`
	Remaining string `json:"remaining,omitempty"`
	Max       string `json:"max,omitempty"`
}

func (s *Server) handleDepositNative(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.DepositNative(r.Context(), caller, amount))
}

// handleReceipt covers a direct native-asset receipt with no operation
// selected; it books exactly like an explicit deposit.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.ReceiveNative(r.Context(), caller, amount))
}

func (s *Server) handleDepositToken(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.DepositToken(r.Context(), caller, model.Asset(req.Asset), amount))
}

func (s *Server) handleWithdrawNative(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.WithdrawNative(r.Context(), caller, amount))
}

func (s *Server) handleWithdrawToken(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.WithdrawToken(r.Context(), caller, model.Asset(req.Asset), amount))
}

func (s *Server) handleRescue(w http.ResponseWriter, r *http.Request) {
	caller, req, ok := s.decodeOp(w, r)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	s.finish(w, s.svc.Rescue(r.Context(), caller, model.Asset(req.Asset), amount))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(userHeader)
	if caller == "" {
		writeBadRequest(w, "missing "+userHeader+" header")
		return
	}
	asset := model.Asset(r.URL.Query().Get("asset"))
	if asset == "" {
		asset = model.Native
	}
	bal := s.svc.BalanceOf(asset, caller)

	resp := balanceResponse{Asset: asset.String(), User: caller, Balance: bal.String()}
	if asset.IsNative() {
		resp.Display = notifier.FormatAmount(bal.String(), model.NativeDecimals)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Stats()
	aggs := make(map[string]string, len(st.Aggregates))
	for asset, total := range st.Aggregates {
		aggs[asset.String()] = total.String()
	}
	writeJSON(w, http.StatusOK, statsResponse{
		NetStable:       st.NetStable.String(),
		NetStableUSD:    notifier.FormatStable(st.NetStable.String()),
		TotalDeposited:  st.TotalDeposited.String(),
		CapRemaining:    st.CapRemaining.String(),
		CapRemainingUSD: notifier.FormatStable(st.CapRemaining.String()),
		DepositCount:    st.DepositCount,
		WithdrawalCount: st.WithdrawalCount,
		Aggregates:      aggs,
	})
}

func (s *Server) decodeOp(w http.ResponseWriter, r *http.Request) (string, *opRequest, bool) {
	caller := r.Header.Get(userHeader)
	if caller == "" {
		writeBadRequest(w, "missing "+userHeader+" header")
		return "", nil, false
	}
	var req opRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body: "+err.Error())
		return "", nil, false
	}
	return caller, &req, true
}

func parseAmount(w http.ResponseWriter, raw string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		writeBadRequest(w, fmt.Sprintf("malformed amount %q", raw))
		return nil, false
	}
	return v, true
}

// finish maps a service result to an HTTP status and JSON body.
func (s *Server) finish(w http.ResponseWriter, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, opResponse{OK: true})
		return
	}

	resp := errorResponse{Message: err.Error()}
	status := http.StatusInternalServerError

	var insuf *ledger.InsufficientBalanceError
	var lim *bank.WithdrawLimitError
	var capErr *bank.CapExceededError
	switch {
	case errors.Is(err, bank.ErrZeroAmount), errors.Is(err, bank.ErrInvalidAsset):
		status = http.StatusBadRequest
		resp.Error = "invalid_request"
	case errors.As(err, &insuf):
		status = http.StatusUnprocessableEntity
		resp.Error = "insufficient_balance"
		resp.Requested = insuf.Requested.String()
		resp.Available = insuf.Available.String()
	case errors.As(err, &lim):
		status = http.StatusUnprocessableEntity
		resp.Error = "withdraw_limit_exceeded"
		resp.Attempted = lim.Attempted.String()
		resp.Max = lim.Max.String()
	case errors.As(err, &capErr):
		status = http.StatusUnprocessableEntity
		resp.Error = "cap_exceeded"
		resp.Attempted = capErr.Attempted.String()
		resp.Remaining = capErr.Remaining.String()
	case errors.Is(err, bank.ErrUnauthorized):
		status = http.StatusForbidden
		resp.Error = "unauthorized"
	case errors.Is(err, oracle.ErrPriceUnavailable):
		status = http.StatusBadGateway
		resp.Error = "price_unavailable"
	case errors.Is(err, bank.ErrNativeTransferFailed):
		status = http.StatusBadGateway
		resp.Error = "native_transfer_failed"
	case errors.Is(err, bank.ErrTransferFailed):
		status = http.StatusBadGateway
		resp.Error = "transfer_failed"
	default:
		resp.Error = "internal"
	}
	writeJSON(w, status, resp)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("encode response")
	}
}
