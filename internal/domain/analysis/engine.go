package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hesabdari/backend/internal/domain/shared"
)

// Engine computes analysis payloads from canonical records. It holds no
// mutable state: every call is a pure function of (dataset, request), so
// concurrent calls never interfere and results are safe to cache by
// fingerprint.
type Engine struct {
	logger *zap.Logger
}

// EngineOption is a functional option for configuring the Engine
type EngineOption func(*Engine)

// WithEngineLogger sets the logger for the engine
func WithEngineLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an analysis engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs one analysis over the dataset. req must already be
// canonical (see Request.Canonical). Empty datasets produce zeroed
// payloads; only parameter-contract violations return an error.
func (e *Engine) Analyze(ds Dataset, req Request) (any, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	records := ds.Select(req.Source)

	switch req.Kind {
	case KindDailyBreakdown:
		return e.dailyBreakdown(records), nil
	case KindCumulative:
		return e.cumulative(records), nil
	case KindTopCounterparties:
		return e.topCounterparties(records, req.Params.TopN), nil
	case KindSummaryStats:
		return e.summaryStats(records), nil
	case KindCustomerLoyalty:
		return e.customerLoyalty(records), nil
	case KindCashFlow:
		return e.cashFlow(ds, req.Params.ReferenceDate), nil
	case KindAccountsAging:
		return e.accountsAging(ds, req.Params.ReferenceDate), nil
	case KindProfitability:
		return e.profitability(ds, req.Params), nil
	case KindForecast:
		return e.forecast(ds, req.Params), nil
	default:
		return nil, fmt.Errorf("%w: unknown analysis kind %q", shared.ErrInvalidParameter, req.Kind)
	}
}

// dayGroup is one event date's accumulated records.
type dayGroup struct {
	date  time.Time
	sum   decimal.Decimal
	count int64
}

// groupByDay buckets records by event date, ascending. Days with no
// records do not appear.
func groupByDay(records []CanonicalRecord) []dayGroup {
	byDay := make(map[time.Time]int)
	groups := make([]dayGroup, 0)
	for _, r := range records {
		idx, ok := byDay[r.EventDate]
		if !ok {
			idx = len(groups)
			byDay[r.EventDate] = idx
			groups = append(groups, dayGroup{date: r.EventDate})
		}
		groups[idx].sum = groups[idx].sum.Add(r.Amount)
		groups[idx].count++
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].date.Before(groups[j].date) })
	return groups
}

func (e *Engine) dailyBreakdown(records []CanonicalRecord) DailyBreakdownPayload {
	groups := groupByDay(records)
	daily := make([]DailyStat, 0, len(groups))
	for _, g := range groups {
		daily = append(daily, DailyStat{
			Date:       isoDate(g.date),
			JalaliDate: FormatJalali(g.date),
			Sum:        g.sum,
			Count:      g.count,
			Mean:       g.sum.Div(decimal.NewFromInt(g.count)),
		})
	}
	return DailyBreakdownPayload{TotalRows: len(records), Daily: daily}
}

func (e *Engine) cumulative(records []CanonicalRecord) CumulativePayload {
	groups := groupByDay(records)
	series := make([]CumulativePoint, 0, len(groups))

	var running, total decimal.Decimal
	for _, g := range groups {
		running = running.Add(g.sum)
		total = total.Add(g.sum)
		series = append(series, CumulativePoint{
			Date:       isoDate(g.date),
			JalaliDate: FormatJalali(g.date),
			Sum:        g.sum,
			Cumulative: running,
		})
	}

	var mean decimal.Decimal
	if len(records) > 0 {
		mean = total.Div(decimal.NewFromInt(int64(len(records))))
	}
	return CumulativePayload{TotalSum: total, TotalMean: mean, Series: series}
}

func (e *Engine) topCounterparties(records []CanonicalRecord, topN int) TopCounterpartiesPayload {
	// First-seen order is the tie-break, so accumulate into a slice and
	// keep the sort stable.
	byName := make(map[string]int)
	stats := make([]CounterpartyStat, 0)
	for _, r := range records {
		name := r.Counterparty
		if name == "" {
			name = UnknownCounterparty
		}
		idx, ok := byName[name]
		if !ok {
			idx = len(stats)
			byName[name] = idx
			stats = append(stats, CounterpartyStat{Name: name})
		}
		stats[idx].Sum = stats[idx].Sum.Add(r.Amount)
		stats[idx].Count++
	}

	for i := range stats {
		stats[i].Mean = stats[i].Sum.Div(decimal.NewFromInt(stats[i].Count))
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Sum.Abs().GreaterThan(stats[j].Sum.Abs())
	})
	if len(stats) > topN {
		stats = stats[:topN]
	}
	return TopCounterpartiesPayload{TopN: topN, Counterparties: stats}
}

func (e *Engine) summaryStats(records []CanonicalRecord) SummaryStatsPayload {
	payload := SummaryStatsPayload{TotalRows: len(records)}
	if len(records) == 0 {
		return payload
	}

	var sum decimal.Decimal
	min := records[0].Amount
	max := records[0].Amount
	for _, r := range records {
		sum = sum.Add(r.Amount)
		if r.Amount.LessThan(min) {
			min = r.Amount
		}
		if r.Amount.GreaterThan(max) {
			max = r.Amount
		}
		if r.Counterparty == "" {
			payload.NullCounterparties++
		}
	}

	n := decimal.NewFromInt(int64(len(records)))
	mean := sum.Div(n)
	payload.Sum = sum
	payload.Mean = &mean
	payload.Min = &min
	payload.Max = &max

	// Sample standard deviation; undefined below two records.
	if len(records) > 1 {
		var sqDiff decimal.Decimal
		for _, r := range records {
			d := r.Amount.Sub(mean)
			sqDiff = sqDiff.Add(d.Mul(d))
		}
		variance, _ := sqDiff.Div(n.Sub(decimal.NewFromInt(1))).Float64()
		std := decimal.NewFromFloat(math.Sqrt(variance))
		payload.Std = &std
	}

	return payload
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
