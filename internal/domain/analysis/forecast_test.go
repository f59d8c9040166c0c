package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Forecast(t *testing.T) {
	e := NewEngine()
	ref := day(t, "2025-06-01")
	ds := Dataset{
		SourcePayable: {
			rec(t, "2025-05-31", -20, "Steel", SourcePayable), // before ref: baseline only
			rec(t, "2025-06-04", -50, "Steel", SourcePayable), // day 3
		},
		SourceReceivable: {
			rec(t, "2025-06-01", 30, "Alborz", SourceReceivable),  // on ref: baseline only
			rec(t, "2025-06-02", 100, "Alborz", SourceReceivable), // day 1
			rec(t, "2025-12-25", 999, "Alborz", SourceReceivable), // beyond horizon
		},
		// Invoices carry no future cash event
		SourceInvoice: {rec(t, "2025-06-03", 777, "Saba", SourceInvoice)},
	}

	payload := analyzeAs[ForecastPayload](t, e, ds, Request{
		Source: SourceAll,
		Kind:   KindForecast,
		Params: Params{ReferenceDate: ref, ForecastDays: 14},
	})

	assert.Equal(t, 14, payload.ForecastDays)
	assert.Equal(t, "2025-06-01", payload.ReferenceDate)
	assert.Equal(t, "2025-06-15", payload.HorizonDate)

	// Baseline is the net of everything up to and including the
	// reference date: -20 + 30
	assert.True(t, payload.StartingPosition.Equal(decimal.NewFromInt(10)))

	assert.True(t, payload.TotalIncoming.Equal(decimal.NewFromInt(100)))
	assert.True(t, payload.TotalOutgoing.Equal(decimal.NewFromInt(50)))
	assert.True(t, payload.NetForecast.Equal(decimal.NewFromInt(50)))

	// Dense daily series: one point per day, quiet days at zero net
	require.Len(t, payload.Daily, 14)
	assert.Equal(t, "2025-06-02", payload.Daily[0].Date)
	assert.True(t, payload.Daily[0].Net.Equal(decimal.NewFromInt(100)))
	assert.True(t, payload.Daily[0].Cumulative.Equal(decimal.NewFromInt(110)))
	assert.True(t, payload.Daily[1].Net.IsZero())
	assert.True(t, payload.Daily[2].Cumulative.Equal(decimal.NewFromInt(60)))
	assert.True(t, payload.Daily[13].Cumulative.Equal(decimal.NewFromInt(60)))

	assert.True(t, payload.MinPosition.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "2025-06-01", payload.MinPositionDate)
	assert.True(t, payload.MaxPosition.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, "2025-06-02", payload.MaxPositionDate)

	// 14 days make exactly two weekly buckets
	require.Len(t, payload.Weekly, 2)
	assert.Equal(t, "2025-06-02", payload.Weekly[0].WeekStart)
	assert.True(t, payload.Weekly[0].Net.Equal(decimal.NewFromInt(50)))
	assert.True(t, payload.Weekly[0].Cumulative.Equal(decimal.NewFromInt(60)))
	assert.True(t, payload.Weekly[1].Net.IsZero())
	assert.True(t, payload.Weekly[1].Cumulative.Equal(decimal.NewFromInt(60)))
}

func TestEngine_Forecast_NegativeDip(t *testing.T) {
	e := NewEngine()
	ref := day(t, "2025-06-01")
	ds := Dataset{
		SourcePayable: {
			rec(t, "2025-06-02", -500, "Steel", SourcePayable),
		},
		SourceReceivable: {
			rec(t, "2025-06-05", 800, "Alborz", SourceReceivable),
		},
	}

	payload := analyzeAs[ForecastPayload](t, e, ds, Request{
		Source: SourceAll,
		Kind:   KindForecast,
		Params: Params{ReferenceDate: ref, ForecastDays: 7},
	})

	// The position dips below zero before the receivable lands; the dip
	// is reported, not treated as an error.
	assert.True(t, payload.MinPosition.Equal(decimal.NewFromInt(-500)))
	assert.Equal(t, "2025-06-02", payload.MinPositionDate)
	assert.True(t, payload.MaxPosition.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "2025-06-05", payload.MaxPositionDate)
}

func TestEngine_Forecast_EmptyWindow(t *testing.T) {
	e := NewEngine()
	ref := day(t, "2025-06-01")

	payload := analyzeAs[ForecastPayload](t, e, Dataset{}, Request{
		Source: SourceAll,
		Kind:   KindForecast,
		Params: Params{ReferenceDate: ref, ForecastDays: 3},
	})

	require.Len(t, payload.Daily, 3)
	for _, p := range payload.Daily {
		assert.True(t, p.Net.IsZero())
		assert.True(t, p.Cumulative.IsZero())
	}
	assert.True(t, payload.MinPosition.IsZero())
	assert.Equal(t, "2025-06-01", payload.MinPositionDate)
}
