package bank

import (
	"errors"
	"fmt"
	"math/big"
)

// Every operation fails with exactly one of the kinds below. All are terminal
// and non-retryable; no operation reports partial success.
var (
	// ErrZeroAmount rejects an absent, zero, or negative amount argument.
	// Amounts are unsigned by contract; a negative value must never reach
	// the book, where it would corrupt the non-negative balance invariant.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrInvalidAsset rejects a token operation naming the native sentinel
	// or an empty identifier.
	ErrInvalidAsset = errors.New("invalid asset identifier")

	// ErrUnauthorized rejects an administrative call from a non-owner.
	ErrUnauthorized = errors.New("caller is not the bank owner")

	// ErrTransferFailed reports a failed token pull or push. For a token
	// withdrawal the ledger effects are already committed when this is
	// returned (see the package doc on ordering); for a token deposit the
	// operation is rolled back whole.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrNativeTransferFailed reports a failed native push. The ledger
	// effects are already committed when this is returned.
	ErrNativeTransferFailed = errors.New("native transfer failed")

	// ErrWithdrawLimitExceeded is the match target for WithdrawLimitError.
	ErrWithdrawLimitExceeded = errors.New("withdraw limit exceeded")

	// ErrCapExceeded is the match target for CapExceededError.
	ErrCapExceeded = errors.New("bank cap exceeded")

	// ErrAccountingUnderflow reports that a withdrawal would drive a
	// stable-unit accumulator negative. Unreachable while the cap invariant
	// holds; checked defensively before any effect is applied.
	ErrAccountingUnderflow = errors.New("stable accumulator underflow")
)

// WithdrawLimitError reports a native withdrawal above the per-transaction
// limit. Amounts are in native-unit precision.
type WithdrawLimitError struct {
	Attempted *big.Int
	Max       *big.Int
}

func (e *WithdrawLimitError) Error() string {
	return fmt.Sprintf("withdraw limit exceeded: attempted %s, max %s", e.Attempted, e.Max)
}

func (e *WithdrawLimitError) Unwrap() error { return ErrWithdrawLimitExceeded }

// CapExceededError reports a deposit that would push the global stable-unit
// accumulator past the cap. Amounts are in stable-unit precision.
type CapExceededError struct {
	Attempted *big.Int
	Remaining *big.Int
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("bank cap exceeded: attempted %s, remaining %s", e.Attempted, e.Remaining)
}

func (e *CapExceededError) Unwrap() error { return ErrCapExceeded }
