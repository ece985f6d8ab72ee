// Package bank implements the custodial ledger service: deposits of the
// native asset and fungible tokens, per-user per-asset balances, a global
// deposit cap denominated in the stable accounting unit, and bounded
// withdrawals.
//
// Every operation follows a strict checks-effects-interactions ordering:
// validate first, commit all ledger effects, and only then drive the transfer
// gateway. The operation mutex is held across the interaction, so by the time
// any other caller observes the ledger its state for the operation is fully
// committed, never half-updated. Native withdrawal is the one documented
// departure: its gateway push can fail after the debit has been committed, in
// which case the recorded balance is gone while the asset was never sent.
// That behavior is kept for compatibility with the system this ledger
// replaces; see ErrNativeTransferFailed.
package bank

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"

	"TokenBank/internal/convert"
	"TokenBank/internal/gateway"
	"TokenBank/internal/ledger"
	"TokenBank/internal/model"
	"TokenBank/internal/oracle"
)

// Config holds the service's immutable construction parameters.
type Config struct {
	// Owner may invoke administrative operations.
	Owner string
	// Cap bounds the net stable-unit value of native deposits (6-dec).
	Cap *big.Int
	// WithdrawLimit bounds a single native withdrawal (18-dec).
	WithdrawLimit *big.Int
	// StateFile, when set, persists the ledger across restarts.
	StateFile string
}

// EventSink receives every deposit/withdrawal event. Sinks must not call back
// into the service.
type EventSink interface {
	RecordEvent(evt *model.Event) error
}

// Stats is a read-only summary of the ledger.
type Stats struct {
	NetStable       *big.Int
	TotalDeposited  *big.Int
	CapRemaining    *big.Int
	DepositCount    uint64
	WithdrawalCount uint64
	Aggregates      map[model.Asset]*big.Int
}

// Service orchestrates all ledger operations. A single mutex serializes them:
// each call runs to completion before another is observed, which is the
// execution model the accounting invariants assume.
type Service struct {
	mu     sync.Mutex
	cfg    Config
	book   *ledger.Book
	oracle oracle.Source
	gw     gateway.Gateway
	sinks  []EventSink

	// Stable-unit accumulators, both moved in lockstep on native operations.
	// netStable is the cap accumulator: net deposits minus withdrawals, each
	// converted at the price prevailing at the time of that operation.
	// totalDeposited mirrors it for the legacy deposit total.
	netStable      *big.Int
	totalDeposited *big.Int

	depositCount    uint64
	withdrawalCount uint64
}

// New creates the service, restoring persisted ledger state when configured.
func New(cfg Config, src oracle.Source, gw gateway.Gateway, sinks ...EventSink) (*Service, error) {
	if src == nil {
		return nil, fmt.Errorf("bank: oracle source is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("bank: transfer gateway is required")
	}
	if cfg.Cap == nil || cfg.Cap.Sign() < 0 {
		return nil, fmt.Errorf("bank: cap must be a non-negative integer")
	}
	if cfg.WithdrawLimit == nil || cfg.WithdrawLimit.Sign() < 0 {
		return nil, fmt.Errorf("bank: withdraw limit must be a non-negative integer")
	}

	s := &Service{
		cfg:            cfg,
		book:           ledger.NewBook(),
		oracle:         src,
		gw:             gw,
		sinks:          sinks,
		netStable:      new(big.Int),
		totalDeposited: new(big.Int),
	}

	if cfg.StateFile != "" {
		st, err := ledger.LoadState(cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("bank: load state: %w", err)
		}
		if err := s.restore(st); err != nil {
			return nil, fmt.Errorf("bank: restore state: %w", err)
		}
	}
	return s, nil
}

// DepositNative records a deposit of the native asset. Custody of the asset
// is assumed to have happened atomically with this call, so there is no
// gateway interaction: the flow is checks then effects only.
func (s *Service) DepositNative(ctx context.Context, caller string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quote, err := s.oracle.CurrentPrice(ctx)
	if err != nil {
		return err
	}
	usdDelta := convert.NativeToStable(amount, quote.Price, quote.Precision)

	// Cap check before any state change.
	next := new(big.Int).Add(s.netStable, usdDelta)
	if next.Cmp(s.cfg.Cap) > 0 {
		return &CapExceededError{
			Attempted: usdDelta,
			Remaining: new(big.Int).Sub(s.cfg.Cap, s.netStable),
		}
	}

	s.book.Credit(model.Native, caller, amount)
	s.netStable.Set(next)
	s.totalDeposited.Add(s.totalDeposited, usdDelta)
	s.depositCount++

	s.persist()
	s.emit(model.NewEvent(model.EventDeposit, caller, model.Native, amount.String()))
	return nil
}

// ReceiveNative handles a direct native-asset receipt with no explicit
// operation selected; it is treated identically to an explicit deposit.
func (s *Service) ReceiveNative(ctx context.Context, caller string, amount *big.Int) error {
	return s.DepositNative(ctx, caller, amount)
}

// DepositToken records a token deposit and pulls the tokens into custody.
// Effects are committed before the pull; a failed pull aborts the whole
// operation, effects included. The reversal happens under the held operation
// mutex, so no caller can ever observe the intermediate state.
func (s *Service) DepositToken(ctx context.Context, caller string, token model.Asset, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if token.IsNative() || !token.Valid() {
		return ErrInvalidAsset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.book.Credit(token, caller, amount)
	s.depositCount++

	if err := s.gw.Pull(ctx, token, caller, amount); err != nil {
		// All-or-nothing: reverse the committed effects before returning.
		if derr := s.book.Debit(token, caller, amount); derr != nil {
			log.Err(derr).Msgf("token deposit rollback failed for %s/%s", token, caller)
		}
		s.depositCount--
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	s.persist()
	s.emit(model.NewEvent(model.EventDeposit, caller, token, amount.String()))
	return nil
}

// WithdrawNative pays out the native asset, bounded by the per-transaction
// limit and the caller's balance. The stable accumulators are decreased at
// the current price, not the deposit-time price, so cap headroom drifts with
// the market; that hybrid model is deliberate. The gateway push runs after
// the effects are committed and a push failure does not restore them.
func (s *Service) WithdrawNative(ctx context.Context, caller string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if amount.Cmp(s.cfg.WithdrawLimit) > 0 {
		return &WithdrawLimitError{
			Attempted: new(big.Int).Set(amount),
			Max:       new(big.Int).Set(s.cfg.WithdrawLimit),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.book.BalanceOf(model.Native, caller)
	if amount.Cmp(available) > 0 {
		return &ledger.InsufficientBalanceError{
			Requested: new(big.Int).Set(amount),
			Available: available,
		}
	}

	quote, err := s.oracle.CurrentPrice(ctx)
	if err != nil {
		return err
	}
	usdDelta := convert.NativeToStable(amount, quote.Price, quote.Precision)

	// Unreachable while the cap invariant holds across operations; checked
	// before any effect so a violation cannot corrupt the accumulators.
	if usdDelta.Cmp(s.netStable) > 0 || usdDelta.Cmp(s.totalDeposited) > 0 {
		return ErrAccountingUnderflow
	}

	if err := s.book.Debit(model.Native, caller, amount); err != nil {
		return err
	}
	s.netStable.Sub(s.netStable, usdDelta)
	s.totalDeposited.Sub(s.totalDeposited, usdDelta)
	s.persist()

	if err := s.gw.PushNative(ctx, caller, amount); err != nil {
		// Effects stay committed; see the package doc.
		return fmt.Errorf("%w: %w", ErrNativeTransferFailed, err)
	}

	s.withdrawalCount++
	s.persist()
	s.emit(model.NewEvent(model.EventWithdrawal, caller, model.Native, amount.String()))
	return nil
}

// WithdrawToken pays out a token. Same shape as the native withdrawal minus
// the cap bookkeeping: the cap applies only to the native asset. A failed
// push surfaces after the debit is committed.
func (s *Service) WithdrawToken(ctx context.Context, caller string, token model.Asset, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if token.IsNative() || !token.Valid() {
		return ErrInvalidAsset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.Debit(token, caller, amount); err != nil {
		return err
	}
	s.persist()

	if err := s.gw.PushToken(ctx, token, caller, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	s.withdrawalCount++
	s.persist()
	s.emit(model.NewEvent(model.EventWithdrawal, caller, token, amount.String()))
	return nil
}

// Rescue pushes tokens out of custody to the owner, bypassing the balance
// book entirely. Recovers tokens sent to the bank by mistake. Owner only.
func (s *Service) Rescue(ctx context.Context, caller string, token model.Asset, amount *big.Int) error {
	if caller != s.cfg.Owner {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if token.IsNative() || !token.Valid() {
		return ErrInvalidAsset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gw.PushToken(ctx, token, s.cfg.Owner, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	log.Info().Msgf("rescued %s of token %s to owner", amount, token)
	return nil
}

// BalanceOf returns the owner's balance for the asset.
func (s *Service) BalanceOf(asset model.Asset, owner string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BalanceOf(asset, owner)
}

// Counters returns the total deposit and withdrawal counts.
func (s *Service) Counters() (deposits, withdrawals uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depositCount, s.withdrawalCount
}

// Stats returns a consistent snapshot of the accumulators and aggregates.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	aggs := make(map[model.Asset]*big.Int)
	for _, asset := range s.book.Assets() {
		aggs[asset] = s.book.AggregateOf(asset)
	}
	return Stats{
		NetStable:       new(big.Int).Set(s.netStable),
		TotalDeposited:  new(big.Int).Set(s.totalDeposited),
		CapRemaining:    new(big.Int).Sub(s.cfg.Cap, s.netStable),
		DepositCount:    s.depositCount,
		WithdrawalCount: s.withdrawalCount,
		Aggregates:      aggs,
	}
}

// Snapshot captures the full ledger state under the operation mutex.
func (s *Service) Snapshot() *ledger.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() *ledger.State {
	st := s.book.Snapshot()
	st.NetStable = s.netStable.String()
	st.TotalDeposited = s.totalDeposited.String()
	st.DepositCount = s.depositCount
	st.WithdrawalCount = s.withdrawalCount
	return st
}

func (s *Service) restore(st *ledger.State) error {
	book, err := ledger.RestoreBook(st)
	if err != nil {
		return err
	}
	s.book = book
	if st.NetStable != "" {
		v, ok := new(big.Int).SetString(st.NetStable, 10)
		if !ok || v.Sign() < 0 {
			return fmt.Errorf("malformed net_stable %q", st.NetStable)
		}
		s.netStable = v
	}
	if st.TotalDeposited != "" {
		v, ok := new(big.Int).SetString(st.TotalDeposited, 10)
		if !ok || v.Sign() < 0 {
			return fmt.Errorf("malformed total_deposited_stable %q", st.TotalDeposited)
		}
		s.totalDeposited = v
	}
	s.depositCount = st.DepositCount
	s.withdrawalCount = st.WithdrawalCount
	return nil
}

// persist writes the state file best-effort; a write failure never fails the
// operation whose effects are already committed.
func (s *Service) persist() {
	if s.cfg.StateFile == "" {
		return
	}
	if err := ledger.SaveState(s.cfg.StateFile, s.snapshotLocked()); err != nil {
		log.Err(err).Msgf("failed to save ledger state to %s", s.cfg.StateFile)
	}
}

func (s *Service) emit(evt *model.Event) {
	for _, sink := range s.sinks {
		if err := sink.RecordEvent(evt); err != nil {
			log.Err(err).Msgf("event sink failed for %s %s", evt.Type, evt.ID)
		}
	}
}
