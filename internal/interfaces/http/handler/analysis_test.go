package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/infrastructure/cache"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := cache.NewManager()
	t.Cleanup(func() { _ = manager.Close() })

	service := appanalysis.NewService(
		appanalysis.NewDatasetStore(),
		analysis.NewEngine(),
		analysis.NewNormalizer(),
		manager,
	)

	analysisHandler := NewAnalysisHandler(service, nil)
	datasetHandler := NewDatasetHandler(service, nil)
	systemHandler := NewSystemHandler(service, manager)

	engine := gin.New()
	api := engine.Group("/api")
	api.GET("/health", systemHandler.Health)
	api.GET("/summary", systemHandler.Summary)
	api.GET("/analysis/:source/:kind", analysisHandler.Analyze)
	api.POST("/datasets/:source", datasetHandler.Reload)
	api.POST("/cache/invalidate/:source", datasetHandler.Invalidate)

	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func reloadInvoices(t *testing.T, engine *gin.Engine) {
	t.Helper()
	w := doRequest(t, engine, http.MethodPost, "/api/datasets/invoice", gin.H{
		"rows": []gin.H{
			{"invoice_date": "1404/01/18", "total_amount": 1000000.0, "customer_name": "Saba"},
			{"invoice_date": "1404/01/19", "total_amount": 2000000.0, "customer_name": "Alborz"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	w := doRequest(t, engine, http.MethodGet, "/api/analysis/invoice/daily_breakdown", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var data struct {
		AnalysisKind string          `json:"analysis_kind"`
		SourceType   string          `json:"source_type"`
		Cached       bool            `json:"cached"`
		Fingerprint  string          `json:"fingerprint"`
		Payload      json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "daily_breakdown", data.AnalysisKind)
	assert.Equal(t, "invoice", data.SourceType)
	assert.False(t, data.Cached)
	assert.NotEmpty(t, data.Fingerprint)

	var payload analysis.DailyBreakdownPayload
	require.NoError(t, json.Unmarshal(data.Payload, &payload))
	assert.Equal(t, 2, payload.TotalRows)

	// Second identical request is a cache hit
	w = doRequest(t, engine, http.MethodGet, "/api/analysis/invoice/daily_breakdown", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Cached)
}

func TestAnalysisHandler_EmptyDatasetIsOK(t *testing.T) {
	engine := newTestRouter(t)

	// No data loaded: a valid request still returns a zeroed payload
	w := doRequest(t, engine, http.MethodGet, "/api/analysis/receivable/summary_stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAnalysisHandler_Rejections(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"unknown kind", "/api/analysis/invoice/pivot_table", "INVALID_PARAMETER"},
		{"unknown source", "/api/analysis/ledger/daily_breakdown", "INVALID_PARAMETER"},
		{"negative top_n", "/api/analysis/invoice/top_counterparties?top_n=-1", "INVALID_PARAMETER"},
		{"bad reference date", "/api/analysis/all/cash_flow?reference_date=June+1st", "DATE_FORMAT"},
		{"partial reference date", "/api/analysis/all/cash_flow?reference_date=2025-06", "DATE_FORMAT"},
		{"bad net revenue", "/api/analysis/all/profitability?net_revenue=abc", "INVALID_PARAMETER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, engine, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestAnalysisHandler_ReferenceDateAcceptsISOAndJalali(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	// 2025-06-01 and 1404/03/11 name the same day; either shape must be
	// accepted and resolve to the same cached analysis.
	type analysisData struct {
		Fingerprint string                   `json:"fingerprint"`
		Payload     analysis.CashFlowPayload `json:"payload"`
	}
	fetch := func(ref string) analysisData {
		w := doRequest(t, engine, http.MethodGet, "/api/analysis/all/cash_flow?reference_date="+ref, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var data analysisData
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
		return data
	}

	iso := fetch("2025-06-01")
	assert.Equal(t, "2025-06-01", iso.Payload.ReferenceDate)
	assert.Equal(t, "1404/03/11", iso.Payload.ReferenceJalaliDate)

	jalali := fetch("1404/03/11")
	assert.Equal(t, iso.Fingerprint, jalali.Fingerprint)
	assert.Equal(t, "2025-06-01", jalali.Payload.ReferenceDate)
}

func TestAnalysisHandler_ForecastDaysClampNotRejected(t *testing.T) {
	engine := newTestRouter(t)

	w := doRequest(t, engine, http.MethodGet, "/api/analysis/all/forecast?forecast_days=9999", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var data struct {
		Payload analysis.ForecastPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, analysis.MaxForecastDays, data.Payload.ForecastDays)
}

func TestDatasetHandler_ReloadReportsWarnings(t *testing.T) {
	engine := newTestRouter(t)

	w := doRequest(t, engine, http.MethodPost, "/api/datasets/payable", gin.H{
		"rows": []gin.H{
			{"due_date": "1404/01/18", "amount": 1000000.0, "beneficiary": "Steel"},
			{"due_date": "not a date", "amount": 1000000.0, "beneficiary": "Bad"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var data struct {
		SourceType string `json:"source_type"`
		Records    int    `json:"records"`
		Skipped    int    `json:"skipped"`
		Warnings   []struct {
			Row   int    `json:"row"`
			Field string `json:"field"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "payable", data.SourceType)
	assert.Equal(t, 1, data.Records)
	assert.Equal(t, 1, data.Skipped)
	require.Len(t, data.Warnings, 1)
	assert.Equal(t, 1, data.Warnings[0].Row)
	assert.Equal(t, "due_date", data.Warnings[0].Field)
}

func TestDatasetHandler_ReloadRejectsAll(t *testing.T) {
	engine := newTestRouter(t)
	w := doRequest(t, engine, http.MethodPost, "/api/datasets/all", gin.H{"rows": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetHandler_Invalidate(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	// Prime the cache, invalidate, then verify a recompute
	doRequest(t, engine, http.MethodGet, "/api/analysis/invoice/cumulative", nil)
	w := doRequest(t, engine, http.MethodPost, "/api/cache/invalidate/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, engine, http.MethodGet, "/api/analysis/invoice/cumulative", nil)
	env := decodeEnvelope(t, w)
	var data struct {
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.False(t, data.Cached)
}

func TestSystemHandler_Health(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	w := doRequest(t, engine, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Status string `json:"status"`
		Cache  struct {
			Backend   string `json:"backend"`
			Reachable bool   `json:"reachable"`
		} `json:"cache"`
		Datasets map[string]int `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "memory", data.Cache.Backend)
	assert.True(t, data.Cache.Reachable)
	assert.Equal(t, 2, data.Datasets["invoice"])
	assert.Equal(t, 0, data.Datasets["payable"])
}

func TestSystemHandler_Summary(t *testing.T) {
	engine := newTestRouter(t)
	reloadInvoices(t, engine)

	w := doRequest(t, engine, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var data struct {
		Summaries map[string]json.RawMessage `json:"summaries"`
		Available []string                   `json:"available_analyses"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Available, len(analysis.Kinds))
	assert.Contains(t, data.Available, "cash_flow")

	// One summary per source type, even for empty sources
	require.Len(t, data.Summaries, len(analysis.SourceTypes))
	var invoiceStats analysis.SummaryStatsPayload
	require.NoError(t, json.Unmarshal(data.Summaries["invoice"], &invoiceStats))
	assert.Equal(t, 2, invoiceStats.TotalRows)
	var payableStats analysis.SummaryStatsPayload
	require.NoError(t, json.Unmarshal(data.Summaries["payable"], &payableStats))
	assert.Equal(t, 0, payableStats.TotalRows)
}
