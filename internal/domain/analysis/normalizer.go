package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RawRow is one spreadsheet row as delivered by the ingestion layer:
// field name to raw value. The engine never sees files, only these rows.
type RawRow map[string]any

// ColumnMapping names the three columns an analysis cares about for one
// source type. The remaining source columns are ignored.
type ColumnMapping struct {
	Date         string
	Amount       string
	Counterparty string
}

// Column mappings follow the ingestion layer's canonical English field
// names, one fixed mapping per source type.
var defaultColumnMappings = map[SourceType]ColumnMapping{
	SourcePayable:    {Date: "due_date", Amount: "amount", Counterparty: "beneficiary"},
	SourceReceivable: {Date: "due_date", Amount: "amount", Counterparty: "company_name"},
	SourceInvoice:    {Date: "invoice_date", Amount: "total_amount", Counterparty: "customer_name"},
	SourceProforma:   {Date: "performa_date", Amount: "amount", Counterparty: "customer_name"},
}

// NormalizationWarning records one skipped row. Warnings are non-fatal;
// the rest of the batch proceeds.
type NormalizationWarning struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Normalizer converts raw rows into CanonicalRecords: Jalali date
// parsing, Rial→Toman conversion and the per-source sign convention.
type Normalizer struct {
	mappings map[SourceType]ColumnMapping
	logger   *zap.Logger
}

// NormalizerOption is a functional option for configuring the Normalizer
type NormalizerOption func(*Normalizer)

// WithNormalizerLogger sets the logger used for per-row warnings
func WithNormalizerLogger(logger *zap.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithColumnMapping overrides the column mapping for one source type
func WithColumnMapping(source SourceType, m ColumnMapping) NormalizerOption {
	return func(n *Normalizer) {
		n.mappings[source] = m
	}
}

// NewNormalizer creates a Normalizer with the default column mappings
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		mappings: make(map[SourceType]ColumnMapping, len(defaultColumnMappings)),
		logger:   zap.NewNop(),
	}
	for st, m := range defaultColumnMappings {
		n.mappings[st] = m
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw rows of one source type into canonical records.
// Rows with an unparseable date or amount are skipped and reported as
// warnings, never aborting the batch. Output order follows input order.
func (n *Normalizer) Normalize(rows []RawRow, source SourceType) ([]CanonicalRecord, []NormalizationWarning) {
	mapping := n.mappings[source]
	records := make([]CanonicalRecord, 0, len(rows))
	var warnings []NormalizationWarning

	for i, row := range rows {
		dateStr, _ := row[mapping.Date].(string)
		eventDate, err := ParseJalaliDate(dateStr)
		if err != nil {
			warnings = append(warnings, NormalizationWarning{Row: i, Field: mapping.Date, Reason: err.Error()})
			n.logger.Warn("skipping row with invalid date",
				zap.String("source", string(source)),
				zap.Int("row", i),
				zap.Error(err))
			continue
		}

		amount, err := parseAmount(row[mapping.Amount])
		if err != nil {
			warnings = append(warnings, NormalizationWarning{Row: i, Field: mapping.Amount, Reason: err.Error()})
			n.logger.Warn("skipping row with invalid amount",
				zap.String("source", string(source)),
				zap.Int("row", i),
				zap.Error(err))
			continue
		}

		// Rial to Toman
		amount = amount.Shift(-1)

		// Sign is fixed by the source type regardless of how the raw
		// column was signed.
		amount = amount.Abs()
		if source.Outgoing() {
			amount = amount.Neg()
		}

		counterparty, _ := row[mapping.Counterparty].(string)

		records = append(records, CanonicalRecord{
			EventDate:    eventDate,
			Amount:       amount,
			Counterparty: strings.TrimSpace(counterparty),
			Source:       source,
		})
	}

	return records, warnings
}

// parseAmount coerces the raw cell value into a decimal. Spreadsheet
// loaders hand over numbers as float64, json.Number or formatted
// strings depending on the path the file took.
func parseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, fmt.Errorf("amount is missing")
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("amount is empty")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Decimal{}, fmt.Errorf("amount has unsupported type %T", v)
	}
}
