package analysis

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hesabdari/backend/internal/domain/shared"
)

// SourceType identifies which spreadsheet a record came from. The source
// fixes both the column mapping and the sign convention of the amount.
type SourceType string

const (
	SourcePayable    SourceType = "payable"
	SourceReceivable SourceType = "receivable"
	SourceInvoice    SourceType = "invoice"
	SourceProforma   SourceType = "proforma"
)

// SourceAll selects the merged view over every source type. It is a
// request selector, never a record's source.
const SourceAll SourceType = "all"

// SourceTypes lists the concrete source types in their canonical order.
var SourceTypes = []SourceType{SourcePayable, SourceReceivable, SourceInvoice, SourceProforma}

// ParseSourceType maps a request string to a SourceType, accepting the
// "all" selector. Unknown values are an INVALID_PARAMETER.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourcePayable, SourceReceivable, SourceInvoice, SourceProforma, SourceAll:
		return SourceType(s), nil
	}
	return "", fmt.Errorf("%w: unknown source type %q", shared.ErrInvalidParameter, s)
}

// Outgoing reports whether the source's amounts leave the company.
// Payables are the only outgoing source; proforma is pipeline, not
// revenue, but still inbound-signed.
func (s SourceType) Outgoing() bool {
	return s == SourcePayable
}

// CanonicalRecord is one financial event after normalization: Gregorian
// event date, signed Toman amount, optional counterparty. Records are
// immutable snapshots; analyses never modify them.
type CanonicalRecord struct {
	EventDate    time.Time       `json:"event_date"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	Source       SourceType      `json:"source_type"`
}

// Dataset groups canonical records by their source type.
type Dataset map[SourceType][]CanonicalRecord

// Merged returns all records across every source type, preserving the
// canonical source order and input order within each source.
func (d Dataset) Merged() []CanonicalRecord {
	var out []CanonicalRecord
	for _, st := range SourceTypes {
		out = append(out, d[st]...)
	}
	return out
}

// Select returns the records a request selector refers to.
func (d Dataset) Select(selector SourceType) []CanonicalRecord {
	if selector == SourceAll {
		return d.Merged()
	}
	return d[selector]
}
