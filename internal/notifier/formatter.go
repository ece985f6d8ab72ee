package notifier

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"TokenBank/internal/model"
)

// FormatAmount renders a fixed-point integer amount as a human-readable
// decimal string, e.g. ("1500000000000000000", 18) -> "1.5".
func FormatAmount(amount string, decimals uint32) string {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FormatEvent renders a one-line human summary of a ledger event.
func FormatEvent(evt *model.Event) string {
	verb := "deposited"
	if evt.Type == model.EventWithdrawal {
		verb = "withdrew"
	}
	asset := "native"
	decimals := model.NativeDecimals
	if !evt.Asset.IsNative() {
		asset = "token " + evt.Asset.String()
		// Token precisions are not tracked by the ledger; report raw units.
		decimals = 0
	}
	return fmt.Sprintf("%s %s %s %s", evt.User, verb, FormatAmount(evt.Amount, decimals), asset)
}

// FormatStable renders a 6-decimal stable-unit amount with a dollar prefix.
func FormatStable(amount string) string {
	return "$" + FormatAmount(amount, model.StableDecimals)
}
