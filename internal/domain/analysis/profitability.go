package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// profitability derives revenue from invoices and costs from payables.
// Proforma records are pipeline, not revenue, and stay out. The net
// figures equal the gross ones unless a net-of-discount revenue total
// was supplied with the request.
func (e *Engine) profitability(ds Dataset, params Params) ProfitabilityPayload {
	invoices := ds[SourceInvoice]

	var revenue decimal.Decimal
	for _, r := range invoices {
		revenue = revenue.Add(r.Amount)
	}
	var costs decimal.Decimal
	for _, r := range ds[SourcePayable] {
		costs = costs.Add(r.Amount.Abs())
	}

	payload := ProfitabilityPayload{
		TotalRevenue: revenue,
		TotalCosts:   costs,
		GrossProfit:  revenue.Sub(costs),
		TopCustomers: e.topCounterparties(invoices, DefaultTopN).Counterparties,
		MonthlyTrend: monthlyRevenue(invoices),
	}
	payload.GrossMargin = margin(payload.GrossProfit, revenue)

	netRevenue := revenue
	if params.NetRevenue != nil {
		netRevenue = *params.NetRevenue
	}
	payload.NetProfit = netRevenue.Sub(costs)
	payload.NetMargin = margin(payload.NetProfit, netRevenue)

	return payload
}

// margin is profit/revenue*100, zero when revenue is zero.
func margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Decimal{}
	}
	return profit.Div(revenue).Mul(hundred)
}

func monthlyRevenue(invoices []CanonicalRecord) []MonthlyRevenue {
	type ym struct {
		year  int
		month int
	}
	byMonth := make(map[ym]int)
	trend := make([]MonthlyRevenue, 0)
	for _, r := range invoices {
		key := ym{year: r.EventDate.Year(), month: int(r.EventDate.Month())}
		idx, ok := byMonth[key]
		if !ok {
			idx = len(trend)
			byMonth[key] = idx
			trend = append(trend, MonthlyRevenue{Year: key.year, Month: key.month})
		}
		trend[idx].Sum = trend[idx].Sum.Add(r.Amount)
		trend[idx].Count++
	}
	sort.Slice(trend, func(i, j int) bool {
		if trend[i].Year != trend[j].Year {
			return trend[i].Year < trend[j].Year
		}
		return trend[i].Month < trend[j].Month
	})
	return trend
}
