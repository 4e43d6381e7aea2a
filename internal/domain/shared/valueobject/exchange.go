package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BaseAmount converts an amount into the company base currency by
// multiplying with the exchange rate and rounding half-even at BaseScale.
// Both the apply and reverse sides of a ledger movement use this helper so
// a reversal restores the base mirror to the exact prior value.
func BaseAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(BaseScale)
}

// ValidateRate rejects exchange rates that cannot produce a meaningful
// base mirror
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return errors.New("exchange rate must be positive")
	}
	return nil
}
