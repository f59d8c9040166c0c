package dto

import (
	"encoding/json"
	"time"
)

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the
// request ID for correlation
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// AnalysisResponse is the body of a computed or cached analysis
type AnalysisResponse struct {
	ID           string          `json:"id"`
	AnalysisKind string          `json:"analysis_kind"`
	SourceType   string          `json:"source_type"`
	Payload      json.RawMessage `json:"payload"`
	ComputedAt   time.Time       `json:"computed_at"`
	Fingerprint  string          `json:"fingerprint"`
	Cached       bool            `json:"cached"`
}

// AnalysisQuery binds the analysis query parameters. Zero values fall
// through to server-side defaults.
type AnalysisQuery struct {
	TopN          int    `form:"top_n"`
	ForecastDays  int    `form:"forecast_days"`
	ReferenceDate string `form:"reference_date"`
	NetRevenue    string `form:"net_revenue"`
}

// WarningInfo describes one skipped row from a dataset reload
type WarningInfo struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ReloadResponse summarizes a dataset reload
type ReloadResponse struct {
	SourceType string        `json:"source_type"`
	Records    int           `json:"records"`
	Skipped    int           `json:"skipped"`
	Warnings   []WarningInfo `json:"warnings"`
}

// InvalidateResponse reports a cache invalidation
type InvalidateResponse struct {
	SourceType string `json:"source_type"`
}

// CacheInfo reports which cache backend served the last probe
type CacheInfo struct {
	Backend      string `json:"backend"`
	Reachable    bool   `json:"reachable"`
	LocalEntries int    `json:"local_entries"`
}

// HealthResponse is the health probe body
type HealthResponse struct {
	Status   string         `json:"status"`
	Cache    CacheInfo      `json:"cache"`
	Datasets map[string]int `json:"datasets"`
}

// SummaryResponse carries summary statistics for every source type in
// one response, plus the loaded record counts and the analyses the API
// can serve
type SummaryResponse struct {
	Datasets  map[string]int             `json:"datasets"`
	Summaries map[string]json.RawMessage `json:"summaries"`
	Kinds     []string                   `json:"available_analyses"`
}
