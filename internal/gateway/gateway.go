package gateway

import (
	"context"
	"math/big"

	"TokenBank/internal/model"
)

// Gateway defines the interface for moving assets in and out of bank custody.
// Deposits of tokens are pull-based; withdrawals push. The native asset is
// push-only: its inbound custody happens atomically with the deposit call
// itself, so there is no native pull. Implementations report counterparty
// misbehavior as an error, nothing more; retries and settlement policy belong
// to the counterparty side of the boundary.
type Gateway interface {
	// Pull draws amount of token from the owner into bank custody.
	Pull(ctx context.Context, token model.Asset, from string, amount *big.Int) error
	// PushToken sends amount of token out of bank custody.
	PushToken(ctx context.Context, token model.Asset, to string, amount *big.Int) error
	// PushNative sends amount of the native asset out of bank custody. A
	// failure here means the recipient's acceptance call failed outright.
	PushNative(ctx context.Context, to string, amount *big.Int) error
}
