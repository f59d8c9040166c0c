package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	appanalysis "github.com/hesabdari/backend/internal/application/analysis"
	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/infrastructure/cache"
	"github.com/hesabdari/backend/internal/interfaces/http/dto"
)

// SystemHandler serves health and summary endpoints
type SystemHandler struct {
	BaseHandler
	service *appanalysis.Service
	cache   *cache.Manager
}

// NewSystemHandler creates a system handler
func NewSystemHandler(service *appanalysis.Service, cacheManager *cache.Manager) *SystemHandler {
	return &SystemHandler{service: service, cache: cacheManager}
}

// Health handles GET /api/health. The service is healthy even when the
// network cache is down, because analyses fall back to the local cache.
func (h *SystemHandler) Health(c *gin.Context) {
	info := h.cache.BackendInfo(c.Request.Context())
	h.Success(c, dto.HealthResponse{
		Status: "ok",
		Cache: dto.CacheInfo{
			Backend:      info.Backend,
			Reachable:    info.Reachable,
			LocalEntries: info.LocalEntries,
		},
		Datasets: datasetCounts(h.service),
	})
}

// Summary handles GET /api/summary: summary statistics for every source
// type in one response. Per-source best effort, a failing source is
// omitted rather than failing the whole call.
func (h *SystemHandler) Summary(c *gin.Context) {
	summaries := make(map[string]json.RawMessage, len(analysis.SourceTypes))
	for _, st := range analysis.SourceTypes {
		result, _, err := h.service.Analyze(c.Request.Context(), analysis.Request{
			Source: st,
			Kind:   analysis.KindSummaryStats,
		})
		if err != nil {
			continue
		}
		if raw, ok := result.Payload.(json.RawMessage); ok {
			summaries[string(st)] = raw
		}
	}

	kinds := make([]string, 0, len(analysis.Kinds))
	for _, k := range analysis.Kinds {
		kinds = append(kinds, string(k))
	}
	h.Success(c, dto.SummaryResponse{
		Datasets:  datasetCounts(h.service),
		Summaries: summaries,
		Kinds:     kinds,
	})
}

func datasetCounts(service *appanalysis.Service) map[string]int {
	counts := make(map[string]int)
	for _, st := range analysis.SourceTypes {
		counts[string(st)] = 0
	}
	for st, n := range service.Counts() {
		counts[string(st)] = n
	}
	return counts
}
