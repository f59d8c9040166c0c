package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Profitability(t *testing.T) {
	e := NewEngine()
	ds := Dataset{
		SourceInvoice: {
			rec(t, "2025-04-07", 600, "Saba", SourceInvoice),
			rec(t, "2025-05-10", 400, "Alborz", SourceInvoice),
		},
		SourcePayable: {
			rec(t, "2025-04-20", -400, "Steel", SourcePayable),
		},
		// Pipeline only, must not count as revenue
		SourceProforma: {
			rec(t, "2025-05-01", 9000, "Saba", SourceProforma),
		},
	}

	payload := analyzeAs[ProfitabilityPayload](t, e, ds, Request{Source: SourceAll, Kind: KindProfitability})

	assert.True(t, payload.TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, payload.TotalCosts.Equal(decimal.NewFromInt(400)))
	assert.True(t, payload.GrossProfit.Equal(decimal.NewFromInt(600)))
	assert.True(t, payload.GrossMargin.Equal(decimal.NewFromInt(60)), payload.GrossMargin.String())

	// Without an override the net figures equal the gross ones
	assert.True(t, payload.NetProfit.Equal(decimal.NewFromInt(600)))
	assert.True(t, payload.NetMargin.Equal(decimal.NewFromInt(60)))

	require.Len(t, payload.TopCustomers, 2)
	assert.Equal(t, "Saba", payload.TopCustomers[0].Name)

	require.Len(t, payload.MonthlyTrend, 2)
	assert.Equal(t, 2025, payload.MonthlyTrend[0].Year)
	assert.Equal(t, 4, payload.MonthlyTrend[0].Month)
	assert.True(t, payload.MonthlyTrend[0].Sum.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 5, payload.MonthlyTrend[1].Month)
}

func TestEngine_Profitability_NetRevenueOverride(t *testing.T) {
	e := NewEngine()
	ds := Dataset{
		SourceInvoice: {rec(t, "2025-04-07", 1000, "Saba", SourceInvoice)},
		SourcePayable: {rec(t, "2025-04-20", -400, "Steel", SourcePayable)},
	}

	net := decimal.NewFromInt(800)
	payload := analyzeAs[ProfitabilityPayload](t, e, ds, Request{
		Source: SourceAll,
		Kind:   KindProfitability,
		Params: Params{NetRevenue: &net},
	})

	// Gross stays on invoice revenue, net follows the override
	assert.True(t, payload.GrossProfit.Equal(decimal.NewFromInt(600)))
	assert.True(t, payload.NetProfit.Equal(decimal.NewFromInt(400)))
	assert.True(t, payload.NetMargin.Equal(decimal.NewFromInt(50)))
}

func TestEngine_Profitability_ZeroRevenue(t *testing.T) {
	e := NewEngine()
	ds := Dataset{
		SourcePayable: {rec(t, "2025-04-20", -400, "Steel", SourcePayable)},
	}

	payload := analyzeAs[ProfitabilityPayload](t, e, ds, Request{Source: SourceAll, Kind: KindProfitability})

	assert.True(t, payload.TotalRevenue.IsZero())
	assert.True(t, payload.GrossProfit.Equal(decimal.NewFromInt(-400)))
	// Margins are zero when revenue is zero, not a division error
	assert.True(t, payload.GrossMargin.IsZero())
	assert.True(t, payload.NetMargin.IsZero())
	assert.Empty(t, payload.TopCustomers)
	assert.Empty(t, payload.MonthlyTrend)
}
