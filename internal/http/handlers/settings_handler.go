// Settings HTTP handlers.
//
//   - GET /settings/:id   (read a persisted setting)
//   - PUT /settings/:id   (upsert a setting; invalidates the in-memory cache)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/services"
)

// UpdateSettingRequest is the JSON payload for upserting a setting value.
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required,min=1"`
}

// SettingResponse echoes a persisted setting.
type SettingResponse struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetSetting returns a persisted setting by id.
func (h *Handlers) GetSetting(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	row, err := h.settingsSvc.Get(ctx, id)
	if err != nil {
		if err == services.ErrSettingNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "setting not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "setting lookup failed")
		return
	}

	ok(c, http.StatusOK, SettingResponse{ID: row.ID, Value: row.Value, UpdatedAt: row.UpdatedAt})
}

// UpdateSetting creates or replaces a setting value. Cached readers (the
// prompt provider) see the new value on their next read.
func (h *Handlers) UpdateSetting(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value required")
		return
	}

	row, err := h.settingsSvc.Upsert(ctx, id, req.Value, nil)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "setting update failed")
		return
	}

	ok(c, http.StatusOK, SettingResponse{ID: row.ID, Value: row.Value, UpdatedAt: row.UpdatedAt})
}
