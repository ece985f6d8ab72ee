package oracle

import (
	"context"
	"fmt"
	"math/big"
)

// StaticSource returns a fixed quote. Used for local development and tests.
type StaticSource struct {
	Quote Quote
}

// NewStaticSource parses a decimal-integer price string into a fixed source.
func NewStaticSource(price string, precision uint32) (*StaticSource, error) {
	p, ok := new(big.Int).SetString(price, 10)
	if !ok {
		return nil, fmt.Errorf("static oracle: malformed price %q", price)
	}
	return &StaticSource{Quote: Quote{Price: p, Precision: precision}}, nil
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) CurrentPrice(_ context.Context) (Quote, error) {
	if s.Quote.Price == nil || s.Quote.Price.Sign() <= 0 {
		return Quote{}, fmt.Errorf("%w: non-positive static price", ErrPriceUnavailable)
	}
	return Quote{Price: new(big.Int).Set(s.Quote.Price), Precision: s.Quote.Precision}, nil
}
