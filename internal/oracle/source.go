package oracle

import (
	"context"
	"errors"
	"math/big"
)

// ErrPriceUnavailable is returned whenever the upstream cannot produce a
// usable price: non-positive value, malformed payload, or transport failure.
var ErrPriceUnavailable = errors.New("oracle: price unavailable")

// Quote is a point-in-time price of the native asset in stable-unit terms.
// Price carries Precision fractional digits.
type Quote struct {
	Price     *big.Int
	Precision uint32
}

// Source defines the interface for reading the current native-asset price.
// Each call is a fresh synchronous read; no caching, no retry.
type Source interface {
	CurrentPrice(ctx context.Context) (Quote, error)
	Name() string
}
