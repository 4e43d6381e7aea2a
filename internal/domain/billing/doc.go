// Package billing provides the invoice/payment ledger domain for a
// multi-company invoicing application.
//
// This package implements the receivables ledger bounded context, which is
// responsible for:
//   - Tracking the outstanding balance (due amount) of every invoice in both
//     the document currency and the company base currency
//   - Deriving invoice status and paid status from balance transitions
//   - Applying and reversing payment allocations against invoices
//   - Allocating gap-free, company- and customer-scoped serial numbers
//   - Recording exchange-rate audit entries for foreign-currency documents
//
// Key Aggregates:
//   - Invoice: A receivable document with a mutable outstanding balance
//   - Payment: A cash receipt, optionally allocated to one invoice
//
// Value Objects:
//   - SerialFormat: Resolved numbering configuration (prefix + pad width)
//   - ExchangeRateLog: Immutable audit row for foreign-currency documents
//
// Every operation is scoped by an explicit company ID; the domain never
// reads tenancy from ambient state.
package billing
