package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// cashFlow merges every source type into one signed timeline. Payables
// arrive negative, receivables and invoices positive, proforma positive
// as pipeline; the sign was fixed at normalization.
func (e *Engine) cashFlow(ds Dataset, referenceDate time.Time) CashFlowPayload {
	merged := ds.Merged()

	payload := CashFlowPayload{
		ReferenceDate:       isoDate(referenceDate),
		ReferenceJalaliDate: FormatJalali(referenceDate),
		DailyFlow:           make([]FlowPoint, 0),
		TypeSummary:         make([]TypeFlowSummary, 0, len(SourceTypes)),
		Transactions:        make([]TransactionDetail, 0, len(merged)),
	}

	for _, r := range merged {
		if r.Amount.IsPositive() {
			payload.TotalIncome = payload.TotalIncome.Add(r.Amount)
		} else {
			payload.TotalOutcome = payload.TotalOutcome.Add(r.Amount.Abs())
		}
	}
	payload.NetCashFlow = payload.TotalIncome.Sub(payload.TotalOutcome)

	// Running cumulative over the whole range, past and future, for
	// charting; the current position stops at the reference date.
	var running decimal.Decimal
	for _, g := range groupByDay(merged) {
		running = running.Add(g.sum)
		payload.DailyFlow = append(payload.DailyFlow, FlowPoint{
			Date:       isoDate(g.date),
			JalaliDate: FormatJalali(g.date),
			Net:        g.sum,
			Cumulative: running,
		})
		if !g.date.After(referenceDate) {
			payload.CurrentPosition = running
		}
	}

	// Per-record series in date order, stable within a day, so clients
	// can drill down from the day-grouped flow.
	ordered := make([]CanonicalRecord, len(merged))
	copy(ordered, merged)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].EventDate.Before(ordered[j].EventDate) })
	for _, r := range ordered {
		payload.Transactions = append(payload.Transactions, TransactionDetail{
			Date:         isoDate(r.EventDate),
			JalaliDate:   FormatJalali(r.EventDate),
			Amount:       r.Amount,
			Source:       r.Source,
			Counterparty: r.Counterparty,
		})
	}

	for _, st := range SourceTypes {
		summary := TypeFlowSummary{Source: st}
		for _, r := range ds[st] {
			summary.Count++
			summary.Sum = summary.Sum.Add(r.Amount)
		}
		payload.TypeSummary = append(payload.TypeSummary, summary)
	}

	return payload
}

// currentPosition is the cumulative net flow of all sources up to and
// including the reference date. The forecast uses it as its baseline.
func (e *Engine) currentPosition(ds Dataset, referenceDate time.Time) decimal.Decimal {
	var position decimal.Decimal
	for _, r := range ds.Merged() {
		if !r.EventDate.After(referenceDate) {
			position = position.Add(r.Amount)
		}
	}
	return position
}
