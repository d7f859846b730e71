package entities

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxAssetAmount bounds the integer amount so that arithmetic on it can
	// never overflow a signed 64-bit value.
	MaxAssetAmount = (1 << 62) - 1

	maxSymbolLen = 7
	maxPrecision = 18
)

// Asset is a bridged value: an integer amount scaled by a precision, tagged
// with a symbol code. "4.0000 XYZ" is Amount=40000, Precision=4, Symbol=XYZ.
type Asset struct {
	Symbol    string `json:"symbol" db:"symbol"`
	Precision uint8  `json:"precision" db:"precision"`
	Amount    int64  `json:"amount" db:"amount"`
}

// SymbolValid reports whether a symbol code is well-formed: 1 to 7 upper-case
// letters A-Z.
func SymbolValid(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > maxSymbolLen {
		return false
	}
	for i := 0; i < len(symbol); i++ {
		if symbol[i] < 'A' || symbol[i] > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeSymbol lower-cases a symbol code for whitelist keying.
func NormalizeSymbol(symbol string) string {
	return strings.ToLower(symbol)
}

// Validate checks the asset the way a deposit gate does: well-formed symbol,
// sane precision, positive bounded amount.
func (a Asset) Validate() error {
	if !SymbolValid(a.Symbol) {
		return fmt.Errorf("%w: invalid deposit symbol name %q", ErrInvalidAsset, a.Symbol)
	}
	if a.Precision > maxPrecision {
		return fmt.Errorf("%w: precision %d out of range", ErrInvalidAsset, a.Precision)
	}
	if a.Amount > MaxAssetAmount {
		return fmt.Errorf("%w: amount exceeds maximum", ErrInvalidAsset)
	}
	if a.Amount <= 0 {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAsset)
	}
	return nil
}

// String renders the canonical textual form, e.g. "4.0000 XYZ".
func (a Asset) String() string {
	if a.Precision == 0 {
		return fmt.Sprintf("%d %s", a.Amount, a.Symbol)
	}
	div := int64(1)
	for i := uint8(0); i < a.Precision; i++ {
		div *= 10
	}
	sign := ""
	amount := a.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/div, int(a.Precision), amount%div, a.Symbol)
}

// ParseAsset parses the canonical textual form "4.0000 XYZ". The precision is
// taken from the number of fractional digits.
func ParseAsset(s string) (Asset, error) {
	numPart, symbol, found := strings.Cut(strings.TrimSpace(s), " ")
	if !found {
		return Asset{}, fmt.Errorf("%w: missing symbol in %q", ErrInvalidAsset, s)
	}

	intPart, fracPart, hasFrac := strings.Cut(numPart, ".")
	precision := 0
	if hasFrac {
		precision = len(fracPart)
	}
	if precision > maxPrecision {
		return Asset{}, fmt.Errorf("%w: precision %d out of range", ErrInvalidAsset, precision)
	}

	amount, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: bad amount %q", ErrInvalidAsset, numPart)
	}

	asset := Asset{Symbol: symbol, Precision: uint8(precision), Amount: amount}
	if err := asset.Validate(); err != nil {
		return Asset{}, err
	}
	return asset, nil
}
