package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

// forecast projects the cash position over the horizon
// (reference_date, reference_date + forecast_days]. Only payable and
// receivable records count: they are dated commitments, while invoices
// and proforma carry no future cash event. The daily series is dense
// (quiet days appear with zero net) and the cumulative line starts from
// the current cash position, so a dip below zero reads directly as a
// funding gap.
func (e *Engine) forecast(ds Dataset, params Params) ForecastPayload {
	referenceDate := params.ReferenceDate
	horizon := referenceDate.AddDate(0, 0, params.ForecastDays)

	var window []CanonicalRecord
	for _, st := range []SourceType{SourcePayable, SourceReceivable} {
		for _, r := range ds[st] {
			if r.EventDate.After(referenceDate) && !r.EventDate.After(horizon) {
				window = append(window, r)
			}
		}
	}

	baseline := e.currentPosition(ds, referenceDate)
	payload := ForecastPayload{
		ForecastDays:        params.ForecastDays,
		ReferenceDate:       isoDate(referenceDate),
		ReferenceJalaliDate: FormatJalali(referenceDate),
		HorizonDate:         isoDate(horizon),
		StartingPosition:    baseline,
		Daily:               make([]ForecastPoint, 0, params.ForecastDays),
		Weekly:              make([]WeeklyForecast, 0),
	}

	for _, r := range window {
		if r.Amount.IsPositive() {
			payload.TotalIncoming = payload.TotalIncoming.Add(r.Amount)
		} else {
			payload.TotalOutgoing = payload.TotalOutgoing.Add(r.Amount.Abs())
		}
	}
	payload.NetForecast = payload.TotalIncoming.Sub(payload.TotalOutgoing)

	netByDay := make(map[time.Time]decimal.Decimal)
	for _, g := range groupByDay(window) {
		netByDay[g.date] = g.sum
	}

	cumulative := baseline
	minPos, maxPos := baseline, baseline
	minDate, maxDate := referenceDate, referenceDate
	for d := 1; d <= params.ForecastDays; d++ {
		day := referenceDate.AddDate(0, 0, d)
		net := netByDay[day]
		cumulative = cumulative.Add(net)
		payload.Daily = append(payload.Daily, ForecastPoint{
			Date:       isoDate(day),
			JalaliDate: FormatJalali(day),
			Net:        net,
			Cumulative: cumulative,
		})
		if cumulative.LessThan(minPos) {
			minPos, minDate = cumulative, day
		}
		if cumulative.GreaterThan(maxPos) {
			maxPos, maxDate = cumulative, day
		}
	}
	payload.MinPosition, payload.MinPositionDate = minPos, isoDate(minDate)
	payload.MaxPosition, payload.MaxPositionDate = maxPos, isoDate(maxDate)

	// 7-day buckets from the reference date; the last bucket may be
	// shorter than a week.
	for start := 0; start < len(payload.Daily); start += 7 {
		end := start + 7
		if end > len(payload.Daily) {
			end = len(payload.Daily)
		}
		week := WeeklyForecast{WeekStart: payload.Daily[start].Date}
		for _, p := range payload.Daily[start:end] {
			week.Net = week.Net.Add(p.Net)
		}
		week.Cumulative = payload.Daily[end-1].Cumulative
		payload.Weekly = append(payload.Weekly, week)
	}

	return payload
}
