package convert

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test literal: " + s)
	}
	return v
}

func TestRescaleEnlarge(t *testing.T) {
	got := Rescale(big.NewInt(123), 6, 18)
	require.Equal(t, bi("123000000000000"), got)
}

func TestRescaleShrinkTruncates(t *testing.T) {
	// 1.999999 in 6-dec shrunk to 0-dec floors to 1.
	got := Rescale(big.NewInt(1999999), 6, 0)
	require.Equal(t, big.NewInt(1), got)
}

func TestRescaleEqualPrecisionIsNoop(t *testing.T) {
	in := big.NewInt(42)
	got := Rescale(in, 8, 8)
	require.Equal(t, in, got)
	require.NotSame(t, in, got, "must return a copy")
}

func TestRescaleDoesNotMutateInput(t *testing.T) {
	in := big.NewInt(777)
	_ = Rescale(in, 2, 10)
	require.Equal(t, big.NewInt(777), in)
}

func TestRescaleEnlargeShrinkRoundTrip(t *testing.T) {
	// Lossless whenever the enlarge happens first.
	for _, x := range []int64{0, 1, 999, 123456789} {
		in := big.NewInt(x)
		out := Rescale(Rescale(in, 6, 18), 18, 6)
		require.Equal(t, in, out, "round trip for %d", x)
	}
}

func TestRescaleShrinkIdempotent(t *testing.T) {
	once := Rescale(bi("123456789"), 8, 2)
	twice := Rescale(once, 2, 2)
	require.Equal(t, once, twice)
}

func TestNativeToStableEightDecimalPrice(t *testing.T) {
	// 100 native units at $2000.00000000 -> $200,000 in 6-dec stable units.
	native := bi("100000000000000000000")
	price := bi("200000000000")
	got := NativeToStable(native, price, 8)
	require.Equal(t, bi("200000000000"), got)
}

func TestNativeToStableSixDecimalPrice(t *testing.T) {
	// Precision exactly matching the stable unit: no rescale of the price.
	native := bi("1000000000000000000") // 1 native unit
	price := bi("1500000000")           // $1500.000000
	got := NativeToStable(native, price, 6)
	require.Equal(t, bi("1500000000"), got)
}

func TestNativeToStableLowPrecisionPrice(t *testing.T) {
	// 2-dec price: shortfall is multiplied in, never a negative exponent.
	native := bi("2000000000000000000") // 2 native units
	price := big.NewInt(49999)          // $499.99
	got := NativeToStable(native, price, 2)
	require.Equal(t, bi("999980000"), got) // $999.98
}

func TestNativeToStableTruncatesDust(t *testing.T) {
	// 1 wei at an 8-dec price floors to zero stable units.
	got := NativeToStable(big.NewInt(1), bi("200000000000"), 8)
	// Compare via Cmp: deep equality distinguishes big.NewInt(0) from an
	// arithmetic zero whose internal word slice is empty but non-nil.
	require.Equal(t, 0, big.NewInt(0).Cmp(got))
}
