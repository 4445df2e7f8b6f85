// Explanation history handler.
//
//   - GET /explanations   (paginated list of the session's past explanations)
//
// History reads come straight from the request cache: every generated answer
// leaves a row there, so the cache doubles as the session's activity log.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/utils"
)

// HistoryService lists a session's answered requests, newest first.
type HistoryService interface {
	History(ctx context.Context, sessionID string, page, pageSize int) ([]domain.CachedRequest, int64, error)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// HistoryEntry is one past explanation in a history listing.
type HistoryEntry struct {
	VideoID      string    `json:"video_id"`
	SelectedText string    `json:"selected_text"`
	Timestamp    float64   `json:"timestamp"`
	Language     string    `json:"language"`
	Explanation  string    `json:"explanation"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResponse wraps a page of history entries and pagination metadata.
type HistoryResponse struct {
	Explanations []HistoryEntry `json:"explanations"`
	Pagination   Pagination     `json:"pagination"`
}

// clampPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// ListExplanations returns the calling session's answered requests.
func (h *Handlers) ListExplanations(c *gin.Context) {
	ctx := c.Request.Context()

	sid := sessionID(c)
	if sid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "session required")
		return
	}

	page, pageSize := clampPagination(c)

	rows, total, err := h.historySvc.History(ctx, sid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "history query failed")
		return
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			VideoID:      row.VideoID,
			SelectedText: row.SelectedText,
			Timestamp:    row.Timestamp,
			Language:     row.Lang,
			Explanation:  row.Explanation,
			CreatedAt:    row.CreatedAt,
		})
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, HistoryResponse{
		Explanations: entries,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
