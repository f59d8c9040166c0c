package handler

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/domain/shared"
	"github.com/hesabdari/backend/internal/interfaces/http/dto"
)

// AnalysisHandler serves computed analyses over the loaded datasets
type AnalysisHandler struct {
	BaseHandler
	service *appanalysis.Service
	logger  *zap.Logger
}

// NewAnalysisHandler creates an analysis handler
func NewAnalysisHandler(service *appanalysis.Service, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{service: service, logger: logger}
}

// Analyze handles GET /api/analysis/:source/:kind
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	source, err := analysis.ParseSourceType(c.Param("source"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	kind, err := analysis.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var query dto.AnalysisQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	params, err := h.buildParams(query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, cached, err := h.service.Analyze(c.Request.Context(), analysis.Request{
		Source: source,
		Kind:   kind,
		Params: params,
	})
	if err != nil {
		h.logger.Warn("analysis rejected",
			zap.String("source", c.Param("source")),
			zap.String("kind", c.Param("kind")),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAnalysisResponse(result, cached))
}

// buildParams converts the bound query into analysis parameters.
// top_n and forecast_days bind as integers already; here only the date
// and the decimal need parsing.
func (h *AnalysisHandler) buildParams(query dto.AnalysisQuery) (analysis.Params, error) {
	params := analysis.Params{
		TopN:         query.TopN,
		ForecastDays: query.ForecastDays,
	}
	if query.ReferenceDate != "" {
		ref, err := analysis.ParseReferenceDate(query.ReferenceDate)
		if err != nil {
			return analysis.Params{}, err
		}
		params.ReferenceDate = ref
	}
	if query.NetRevenue != "" {
		net, err := decimal.NewFromString(query.NetRevenue)
		if err != nil {
			return analysis.Params{}, fmt.Errorf("%w: net_revenue must be a decimal number", shared.ErrInvalidParameter)
		}
		params.NetRevenue = &net
	}
	return params, nil
}

func toAnalysisResponse(result *analysis.Result, cached bool) dto.AnalysisResponse {
	raw, _ := result.Payload.(json.RawMessage)
	return dto.AnalysisResponse{
		ID:           result.ID.String(),
		AnalysisKind: string(result.Kind),
		SourceType:   string(result.Source),
		Payload:      raw,
		ComputedAt:   result.ComputedAt,
		Fingerprint:  result.Fingerprint,
		Cached:       cached,
	}
}
