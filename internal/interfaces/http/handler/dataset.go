package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/domain/shared"
	"github.com/hesabdari/backend/internal/interfaces/http/dto"
)

// DatasetHandler manages dataset reloads and cache invalidation
type DatasetHandler struct {
	BaseHandler
	service *appanalysis.Service
	logger  *zap.Logger
}

// NewDatasetHandler creates a dataset handler
func NewDatasetHandler(service *appanalysis.Service, logger *zap.Logger) *DatasetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetHandler{service: service, logger: logger}
}

type reloadRequest struct {
	Rows []analysis.RawRow `json:"rows" binding:"required"`
}

// Reload handles POST /api/datasets/:source. The body replaces the
// source's records wholesale; rows that fail normalization are skipped
// and reported back, never fatal.
func (h *DatasetHandler) Reload(c *gin.Context) {
	source, err := h.loadableSource(c.Param("source"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req reloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	count, warnings, err := h.service.LoadRows(c.Request.Context(), source, req.Rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ReloadResponse{
		SourceType: string(source),
		Records:    count,
		Skipped:    len(req.Rows) - count,
		Warnings:   toWarningInfos(warnings),
	})
}

// Invalidate handles POST /api/cache/invalidate/:source
func (h *DatasetHandler) Invalidate(c *gin.Context) {
	source, err := analysis.ParseSourceType(c.Param("source"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.service.Invalidate(c.Request.Context(), source)
	h.Success(c, dto.InvalidateResponse{SourceType: string(source)})
}

// loadableSource parses a source selector that must name a concrete
// dataset; "all" is a query selector, not a load target.
func (h *DatasetHandler) loadableSource(raw string) (analysis.SourceType, error) {
	source, err := analysis.ParseSourceType(raw)
	if err != nil {
		return "", err
	}
	if source == analysis.SourceAll {
		return "", fmt.Errorf("%w: cannot load rows into source %q", shared.ErrInvalidParameter, raw)
	}
	return source, nil
}

func toWarningInfos(warnings []analysis.NormalizationWarning) []dto.WarningInfo {
	out := make([]dto.WarningInfo, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, dto.WarningInfo{
			Row:    w.Row,
			Field:  w.Field,
			Reason: w.Reason,
		})
	}
	return out
}
