package model

import "strings"

// Asset identifies an asset held by the bank. The native asset uses a reserved
// sentinel value; every other asset is a fungible token identified by its
// address string.
type Asset string

// Native is the sentinel identifier for the chain's base currency. It is not a
// valid token address, so it can never collide with a real token.
const Native Asset = "native"

// NativeDecimals is the fixed-point precision of native-asset amounts.
const NativeDecimals uint32 = 18

// StableDecimals is the fixed-point precision of the stable accounting unit
// used for cap enforcement.
const StableDecimals uint32 = 6

// IsNative reports whether the asset is the native sentinel.
func (a Asset) IsNative() bool { return a == Native }

// Valid reports whether the identifier is usable: the native sentinel, or a
// non-empty token address.
func (a Asset) Valid() bool {
	return a == Native || strings.TrimSpace(string(a)) != ""
}

func (a Asset) String() string { return string(a) }
