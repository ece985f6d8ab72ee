package gateway

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"TokenBank/internal/model"
)

// Call records a single gateway invocation.
type Call struct {
	Op      string // "pull", "push_token", "push_native"
	Asset   model.Asset
	Account string
	Amount  *big.Int
}

// Mock implements Gateway for tests and dry-run mode. Every call is recorded
// in order; failures are scripted per operation. The fail flags are read
// under the mutex; use the Set helpers to toggle them once calls may be in
// flight on other goroutines.
type Mock struct {
	mu          sync.Mutex
	calls       []Call
	FailPull    bool
	FailPushTok bool
	FailPushNat bool
}

// NewMock creates a gateway that accepts every transfer.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Pull(_ context.Context, token model.Asset, from string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "pull", Asset: token, Account: from, Amount: new(big.Int).Set(amount)})
	if m.FailPull {
		return errors.New("mock: pull refused")
	}
	return nil
}

func (m *Mock) PushToken(_ context.Context, token model.Asset, to string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "push_token", Asset: token, Account: to, Amount: new(big.Int).Set(amount)})
	if m.FailPushTok {
		return errors.New("mock: token push refused")
	}
	return nil
}

func (m *Mock) PushNative(_ context.Context, to string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "push_native", Asset: model.Native, Account: to, Amount: new(big.Int).Set(amount)})
	if m.FailPushNat {
		return errors.New("mock: native push refused")
	}
	return nil
}

// SetFailPull toggles pull failures under the mutex, safe against in-flight
// calls from other goroutines.
func (m *Mock) SetFailPull(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailPull = fail
}

// SetFailPushToken toggles token push failures under the mutex.
func (m *Mock) SetFailPushToken(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailPushTok = fail
}

// SetFailPushNative toggles native push failures under the mutex.
func (m *Mock) SetFailPushNative(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailPushNat = fail
}

// Calls returns a copy of the recorded invocations in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
