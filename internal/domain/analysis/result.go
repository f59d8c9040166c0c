package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result wraps one computed analysis. Immutable once produced: a cache
// hit inside the TTL window returns the same payload unchanged.
type Result struct {
	ID          uuid.UUID  `json:"id"`
	Kind        Kind       `json:"analysis_kind"`
	Source      SourceType `json:"source_type"`
	Payload     any        `json:"payload"`
	ComputedAt  time.Time  `json:"computed_at"`
	Fingerprint string     `json:"fingerprint"`
}

// DailyStat is one date's aggregate in a daily breakdown. Dates with no
// records are omitted, not zero-filled.
type DailyStat struct {
	Date       string          `json:"date"`        // ISO-8601
	JalaliDate string          `json:"jalali_date"` // YYYY/MM/DD
	Sum        decimal.Decimal `json:"sum"`
	Count      int64           `json:"count"`
	Mean       decimal.Decimal `json:"mean"`
}

// DailyBreakdownPayload is the daily_breakdown result: per-date
// sum/count/mean sorted ascending by date.
type DailyBreakdownPayload struct {
	TotalRows int         `json:"total_rows"`
	Daily     []DailyStat `json:"daily_breakdown"`
}

// CumulativePoint is one step of the running total.
type CumulativePoint struct {
	Date       string          `json:"date"`
	JalaliDate string          `json:"jalali_date"`
	Sum        decimal.Decimal `json:"sum"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// CumulativePayload is the cumulative result: same-date records are
// summed before accumulating.
type CumulativePayload struct {
	TotalSum  decimal.Decimal   `json:"total_sum"`
	TotalMean decimal.Decimal   `json:"total_mean"`
	Series    []CumulativePoint `json:"cumulative_data"`
}

// CounterpartyStat is one counterparty's aggregate. Records without a
// counterparty group under UnknownCounterparty rather than being
// dropped.
type CounterpartyStat struct {
	Name  string          `json:"name"`
	Sum   decimal.Decimal `json:"sum"`
	Count int64           `json:"count"`
	Mean  decimal.Decimal `json:"mean"`
}

// UnknownCounterparty is the bucket for records with no counterparty.
const UnknownCounterparty = "unknown"

// TopCounterpartiesPayload is the top_counterparties result, sorted
// descending by absolute sum, ties broken by first appearance.
type TopCounterpartiesPayload struct {
	TopN           int                `json:"top_n"`
	Counterparties []CounterpartyStat `json:"counterparties"`
}

// SummaryStatsPayload is the summary_stats result. The descriptive
// stats are nil (JSON null) for an empty dataset, never a division
// error.
type SummaryStatsPayload struct {
	TotalRows           int              `json:"total_rows"`
	NullCounterparties  int              `json:"null_counterparties"`
	Sum                 decimal.Decimal  `json:"total_sum"`
	Mean                *decimal.Decimal `json:"mean"`
	Std                 *decimal.Decimal `json:"std"`
	Min                 *decimal.Decimal `json:"min"`
	Max                 *decimal.Decimal `json:"max"`
}

// LoyaltyStat is one counterparty's purchase-history aggregate.
type LoyaltyStat struct {
	Name               string          `json:"customer_name"`
	TotalValue         decimal.Decimal `json:"total_value"`
	OrderCount         int64           `json:"order_count"`
	AverageValue       decimal.Decimal `json:"average_value"`
	LastPurchase       string          `json:"last_purchase"`
	LastPurchaseJalali string          `json:"last_purchase_jalali"`
}

// CustomerLoyaltyPayload is the customer_loyalty result: counterparties
// ranked by how often they transact, ties broken by first appearance.
type CustomerLoyaltyPayload struct {
	TotalCustomers int           `json:"total_customers"`
	Customers      []LoyaltyStat `json:"loyalty_data"`
}

// FlowPoint is one day of the merged cash-flow timeline with its
// running cumulative total.
type FlowPoint struct {
	Date       string          `json:"date"`
	JalaliDate string          `json:"jalali_date"`
	Net        decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// TransactionDetail is one record of the merged cash-flow timeline,
// kept alongside the day-grouped series so clients can drill into the
// individual events behind a day's net.
type TransactionDetail struct {
	Date         string          `json:"date"`
	JalaliDate   string          `json:"jalali_date"`
	Amount       decimal.Decimal `json:"amount"`
	Source       SourceType      `json:"source_type"`
	Counterparty string          `json:"counterparty,omitempty"`
}

// TypeFlowSummary is the per-source-type slice of the cash flow.
type TypeFlowSummary struct {
	Source SourceType      `json:"source_type"`
	Count  int64           `json:"count"`
	Sum    decimal.Decimal `json:"sum"`
}

// CashFlowPayload is the cash_flow result across all source types.
// TotalOutcome is reported as a positive magnitude.
type CashFlowPayload struct {
	ReferenceDate       string              `json:"reference_date"`
	ReferenceJalaliDate string              `json:"reference_jalali_date"`
	TotalIncome         decimal.Decimal     `json:"total_income"`
	TotalOutcome        decimal.Decimal     `json:"total_outcome"`
	NetCashFlow         decimal.Decimal     `json:"net_cash_flow"`
	CurrentPosition     decimal.Decimal     `json:"current_position"`
	DailyFlow           []FlowPoint         `json:"daily_flow"`
	TypeSummary         []TypeFlowSummary   `json:"type_summary"`
	Transactions        []TransactionDetail `json:"detailed_transactions"`
}

// Aging bucket names, in increasing-overdue order. "current" holds
// not-yet-due amounts only when the event date equals the reference
// date; later dates are excluded from aging entirely.
const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	Bucket90Plus  = "90+"
)

// AgingBucketNames lists the buckets in display order.
var AgingBucketNames = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, Bucket90Plus}

// AgingSide is the aging breakdown of one side of the ledger. Amounts
// are magnitudes.
type AgingSide struct {
	Total        decimal.Decimal            `json:"total"`
	TotalOverdue decimal.Decimal            `json:"total_overdue"`
	Buckets      map[string]decimal.Decimal `json:"buckets"`
}

// AccountsAgingPayload is the accounts_aging result: payables and
// receivables aged independently against the same reference date.
type AccountsAgingPayload struct {
	ReferenceDate       string          `json:"reference_date"`
	ReferenceJalaliDate string          `json:"reference_jalali_date"`
	Payables            AgingSide       `json:"payables"`
	Receivables         AgingSide       `json:"receivables"`
	NetPosition         decimal.Decimal `json:"net_position"`
}

// MonthlyRevenue is one month of the revenue trend.
type MonthlyRevenue struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Sum   decimal.Decimal `json:"sum"`
	Count int64           `json:"count"`
}

// ProfitabilityPayload is the profitability result. GrossMargin is zero
// when revenue is zero.
type ProfitabilityPayload struct {
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
	TotalCosts   decimal.Decimal    `json:"total_costs"`
	GrossProfit  decimal.Decimal    `json:"gross_profit"`
	NetProfit    decimal.Decimal    `json:"net_profit"`
	GrossMargin  decimal.Decimal    `json:"gross_margin"`
	NetMargin    decimal.Decimal    `json:"net_margin"`
	TopCustomers []CounterpartyStat `json:"customer_revenue"`
	MonthlyTrend []MonthlyRevenue   `json:"monthly_revenue"`
}

// ForecastPoint is one day of the forecast window. The series is dense:
// days without activity appear with a zero net so charts stay
// contiguous.
type ForecastPoint struct {
	Date       string          `json:"date"`
	JalaliDate string          `json:"jalali_date"`
	Net        decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// WeeklyForecast aggregates the forecast into 7-day buckets from the
// reference date.
type WeeklyForecast struct {
	WeekStart  string          `json:"week_start"`
	Net        decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// ForecastPayload is the forecast result. A negative MinPosition is a
// signal for the caller, not an error.
type ForecastPayload struct {
	ForecastDays        int              `json:"forecast_days"`
	ReferenceDate       string           `json:"reference_date"`
	ReferenceJalaliDate string           `json:"reference_jalali_date"`
	HorizonDate         string           `json:"horizon_date"`
	StartingPosition    decimal.Decimal  `json:"starting_position"`
	TotalIncoming       decimal.Decimal  `json:"total_incoming"`
	TotalOutgoing       decimal.Decimal  `json:"total_outgoing"`
	NetForecast         decimal.Decimal  `json:"net_forecast"`
	MinPosition         decimal.Decimal  `json:"min_position"`
	MinPositionDate     string           `json:"min_position_date"`
	MaxPosition         decimal.Decimal  `json:"max_position"`
	MaxPositionDate     string           `json:"max_position_date"`
	Daily               []ForecastPoint  `json:"daily_forecast"`
	Weekly              []WeeklyForecast `json:"weekly_forecast"`
}
