// Statistics HTTP handler.
//
//   - GET /statistics   (read-only usage aggregates over answered requests)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatisticsResponse carries usage aggregates for answered requests.
type StatisticsResponse struct {
	TotalRequests int64            `json:"total_requests"`
	ByLanguage    map[string]int64 `json:"by_language"`
	WithImage     int64            `json:"with_image"`
	WithoutImage  int64            `json:"without_image"`
}

// GetStatistics returns aggregate counters over the request cache.
func (h *Handlers) GetStatistics(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.statsSvc.RequestStats(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "statistics query failed")
		return
	}

	byLang := make(map[string]int64, len(stats.ByLanguage))
	for _, lc := range stats.ByLanguage {
		byLang[lc.Lang] = lc.Count
	}

	ok(c, http.StatusOK, StatisticsResponse{
		TotalRequests: stats.Total,
		ByLanguage:    byLang,
		WithImage:     stats.WithImage,
		WithoutImage:  stats.WithoutImage,
	})
}
