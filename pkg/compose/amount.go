package compose

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ninja0404/tipsend-go/pkg/types"
)

var maxRawAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ParseAmount converts a decimal string such as "1.5" into raw units of a
// mint with the given decimals.
func ParseAmount(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, types.NewValidationError("amount", "is empty")
	}
	// decimal accepts signs and exponents; token amounts are plain digits.
	if strings.HasSuffix(s, ".") {
		return 0, types.NewValidationError("amount", "has a trailing decimal point")
	}
	if strings.Count(s, ".") > 1 || strings.Trim(s, "0123456789.") != "" {
		return 0, types.NewValidationError("amount", "must be a non-negative decimal number")
	}

	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, types.NewValidationError("amount", "must be a non-negative decimal number")
	}
	raw := d.Shift(int32(decimals))
	if !raw.IsInteger() {
		return 0, types.NewValidationError("amount", "has more than "+strconv.Itoa(int(decimals))+" fractional digits")
	}
	if raw.IsZero() {
		return 0, types.ValidateAmount("amount", 0)
	}
	if raw.GreaterThan(maxRawAmount) {
		return 0, types.NewValidationError("amount", "is out of range")
	}
	return raw.BigInt().Uint64(), nil
}

// FormatAmount renders raw units as a decimal string without trailing zeros.
func FormatAmount(raw uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals)).String()
}
