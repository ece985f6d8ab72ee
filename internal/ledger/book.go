package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"TokenBank/internal/model"
)

// ErrInsufficientBalance is the match target for debit failures.
var ErrInsufficientBalance = errors.New("insufficient balance")

// InsufficientBalanceError reports a debit that exceeds the held balance.
type InsufficientBalanceError struct {
	Requested *big.Int
	Available *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Book is the authoritative mapping of (asset, owner) to balance, plus a
// per-asset aggregate kept in lockstep with every balance change. Entries are
// created on first write and never deleted; a zero balance is a valid terminal
// state. The book holds no lock of its own: all mutation funnels through the
// bank service, which serializes operations.
type Book struct {
	balances   map[model.Asset]map[string]*big.Int
	aggregates map[model.Asset]*big.Int
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		balances:   make(map[model.Asset]map[string]*big.Int),
		aggregates: make(map[model.Asset]*big.Int),
	}
}

// Credit increases owner's balance and the asset aggregate by amount.
// The caller guarantees amount is positive; Credit has no failure mode.
func (b *Book) Credit(asset model.Asset, owner string, amount *big.Int) {
	owners, ok := b.balances[asset]
	if !ok {
		owners = make(map[string]*big.Int)
		b.balances[asset] = owners
	}
	bal, ok := owners[owner]
	if !ok {
		bal = new(big.Int)
		owners[owner] = bal
	}
	bal.Add(bal, amount)

	agg, ok := b.aggregates[asset]
	if !ok {
		agg = new(big.Int)
		b.aggregates[asset] = agg
	}
	agg.Add(agg, amount)
}

// Debit decreases owner's balance and the asset aggregate by amount. It
// checks before mutating: on failure the book is untouched. Debits are never
// applied speculatively, because the surrounding operation may already have
// triggered an irreversible external effect.
func (b *Book) Debit(asset model.Asset, owner string, amount *big.Int) error {
	bal := b.balance(asset, owner)
	if amount.Cmp(bal) > 0 {
		return &InsufficientBalanceError{
			Requested: new(big.Int).Set(amount),
			Available: new(big.Int).Set(bal),
		}
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal.Sub(bal, amount)
	b.aggregates[asset].Sub(b.aggregates[asset], amount)
	return nil
}

// BalanceOf returns a copy of the owner's balance for the asset. An entry
// that was never written reads as zero.
func (b *Book) BalanceOf(asset model.Asset, owner string) *big.Int {
	return new(big.Int).Set(b.balance(asset, owner))
}

// AggregateOf returns a copy of the total held for the asset.
func (b *Book) AggregateOf(asset model.Asset) *big.Int {
	if agg, ok := b.aggregates[asset]; ok {
		return new(big.Int).Set(agg)
	}
	return new(big.Int)
}

// Assets lists every asset the book has an aggregate for.
func (b *Book) Assets() []model.Asset {
	out := make([]model.Asset, 0, len(b.aggregates))
	for asset := range b.aggregates {
		out = append(out, asset)
	}
	return out
}

func (b *Book) balance(asset model.Asset, owner string) *big.Int {
	if owners, ok := b.balances[asset]; ok {
		if bal, ok := owners[owner]; ok {
			return bal
		}
	}
	return new(big.Int)
}
