package convert

import (
	"math/big"

	"TokenBank/internal/model"
)

// Pure fixed-point arithmetic over non-negative big integers. Amounts carry
// their decimal precision at the call site; nothing here ever touches floats.

// pow10 returns 10^n as a big.Int.
func pow10(n uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Rescale converts amount between fixed-point precisions. Enlarging the
// precision multiplies by 10^(to-from); shrinking floor-divides by
// 10^(from-to), truncating any fractional remainder. Equal precisions return
// a copy unchanged. The input is never mutated.
func Rescale(amount *big.Int, from, to uint32) *big.Int {
	out := new(big.Int).Set(amount)
	switch {
	case to > from:
		out.Mul(out, pow10(to-from))
	case to < from:
		out.Quo(out, pow10(from-to))
	}
	return out
}

// NativeToStable converts a native-asset amount (18-decimal fixed point) to
// the stable accounting unit (6-decimal fixed point) at the given oracle
// price. The price carries pricePrecision fractional digits; oracles commonly
// report 8 but nothing here assumes that. Exponents are arranged so no
// negative power of ten is ever needed: when pricePrecision >= 6 the excess
// price digits are divided out, otherwise the shortfall is multiplied in.
func NativeToStable(native, price *big.Int, pricePrecision uint32) *big.Int {
	out := new(big.Int).Mul(native, price)
	if pricePrecision >= model.StableDecimals {
		out.Quo(out, pow10(pricePrecision-model.StableDecimals))
	} else {
		out.Mul(out, pow10(model.StableDecimals-pricePrecision))
	}
	return out.Quo(out, pow10(model.NativeDecimals))
}
