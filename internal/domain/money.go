package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a display amount such as "200" or "0.25" into the
// ledger's smallest unit given the number of decimals. It rejects values
// with more precision than decimals allows and values that overflow int64.
func ToBaseUnits(amount string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", amount)
	}

	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount must have at most %d decimal places", decimals)
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(maxUnits)) {
		return 0, fmt.Errorf("amount %q is out of range", amount)
	}
	return scaled.IntPart(), nil
}

// FromBaseUnits renders a base-unit amount as a fixed-point display string.
func FromBaseUnits(units int64, decimals int32) string {
	return decimal.New(units, -decimals).StringFixed(decimals)
}

const maxUnits = int64(^uint64(0) >> 1)
