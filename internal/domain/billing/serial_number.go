package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/ledgerd/backend/internal/domain/shared"
)

// DocumentKind identifies a numbering series. Each (company, kind) pair
// has its own gap-free counter, and each (company, customer, kind) triple
// has a second, customer-scoped counter.
type DocumentKind string

const (
	KindInvoice  DocumentKind = "INVOICE"
	KindPayment  DocumentKind = "PAYMENT"
	KindEstimate DocumentKind = "ESTIMATE"
)

// IsValid checks if the kind names a known numbering series
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindInvoice, KindPayment, KindEstimate:
		return true
	}
	return false
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// SerialFormat is the resolved numbering configuration for one document
// kind: a literal prefix and the zero-pad width of the numeric part. Any
// upstream placeholder syntax is resolved into these two fields before the
// format reaches the ledger.
type SerialFormat struct {
	Prefix string
	Width  int
}

// DefaultSerialFormats are used when a company has no stored numbering
// configuration for a kind.
var DefaultSerialFormats = map[DocumentKind]SerialFormat{
	KindInvoice:  {Prefix: "INV-", Width: 6},
	KindPayment:  {Prefix: "PAY-", Width: 6},
	KindEstimate: {Prefix: "EST-", Width: 6},
}

// Validate rejects formats that cannot produce a serial number
func (f SerialFormat) Validate() error {
	if f.Width < 1 {
		return shared.NewDomainError("INVALID_INPUT", "serial format width must be at least 1")
	}
	return nil
}

// Format renders the serial number for sequence position n. Numbers wider
// than the configured width are never truncated.
func (f SerialFormat) Format(n int64) string {
	return fmt.Sprintf("%s%0*d", f.Prefix, f.Width, n)
}

// ResolveFormat expands date placeholders in a stored prefix template into
// a literal SerialFormat. Supported placeholders: {YYYY}, {YY}, {MM}, {DD}.
// Everything else in the template is taken verbatim.
func ResolveFormat(template string, width int, at time.Time) SerialFormat {
	r := strings.NewReplacer(
		"{YYYY}", at.Format("2006"),
		"{YY}", at.Format("06"),
		"{MM}", at.Format("01"),
		"{DD}", at.Format("02"),
	)
	return SerialFormat{Prefix: r.Replace(template), Width: width}
}
