package server

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"TokenBank/internal/bank"
	"TokenBank/internal/gateway"
	"TokenBank/internal/oracle"
)

const (
	owner = "0xbank0wner"
	alice = "0xalice"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test literal: " + s)
	}
	return v
}

func newTestServer(t *testing.T) (*Server, *gateway.Mock) {
	t.Helper()
	src, err := oracle.NewStaticSource("200000000000", 8)
	require.NoError(t, err)
	gw := gateway.NewMock()
	svc, err := bank.New(bank.Config{
		Owner:         owner,
		Cap:           bi("1000000000000"),
		WithdrawLimit: bi("500000000000000000"),
	}, src, gw)
	require.NoError(t, err)
	return New(svc), gw
}

func do(t *testing.T, s *Server, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestDepositAndBalance(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"100000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/balance?asset=native", alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	var bal balanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	require.Equal(t, "100000000000000000000", bal.Balance)
	require.Equal(t, "100", bal.Display)
}

func TestReceiptBooksLikeDeposit(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/receipt", alice, `{"amount":"1000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/stats", alice, "")
	var st statsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, uint64(1), st.DepositCount)
	require.Equal(t, "2000000000", st.NetStable)
	require.Equal(t, "$2000", st.NetStableUSD)
}

func TestCapExceededMapsTo422WithFields(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"100000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"500000000000000000000"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var er errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	require.Equal(t, "cap_exceeded", er.Error)
	require.Equal(t, "1000000000000", er.Attempted)
	require.Equal(t, "800000000000", er.Remaining)
}

func TestWithdrawLimitMapsTo422(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/v1/withdraw", alice, `{"amount":"600000000000000000"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var er errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	require.Equal(t, "withdraw_limit_exceeded", er.Error)
	require.Equal(t, "600000000000000000", er.Attempted)
	require.Equal(t, "500000000000000000", er.Max)
}

func TestRescueRequiresOwner(t *testing.T) {
	s, gw := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/rescue", alice, `{"asset":"0xdead","amount":"5"}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/rescue", owner, `{"asset":"0xdead","amount":"5"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gw.Calls(), 1)
}

func TestRejectsMissingUserAndMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/deposit", "", `{"amount":"1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"1","bogus":true}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"1.5"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/deposit", alice, `{"amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnrecognizedRouteRejected(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/v1/exchange", alice, `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransferFailureMapsToBadGateway(t *testing.T) {
	s, gw := newTestServer(t)
	gw.SetFailPull(true)

	w := do(t, s, http.MethodPost, "/api/v1/deposit/token", alice, `{"asset":"0xdead","amount":"10"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	var er errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	require.Equal(t, "transfer_failed", er.Error)

	// Rolled back: nothing credited.
	wb := do(t, s, http.MethodGet, "/api/v1/balance?asset=0xdead", alice, "")
	var bal balanceResponse
	require.NoError(t, json.Unmarshal(wb.Body.Bytes(), &bal))
	require.Equal(t, "0", bal.Balance)
}
