package valueobject

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	INR Currency = "INR" // Indian Rupee
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// BaseScale is the number of decimal places ledger amounts are kept at.
// All rounding happens at this scale using banker's rounding (half-even).
const BaseScale = 2

// Valid reports whether the code has ISO 4217 shape: exactly three
// uppercase letters. The engine does not whitelist currencies; any
// well-formed code is accepted.
func (c Currency) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
