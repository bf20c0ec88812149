package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"samayog/utils"
)

// RecordViewHandler counts one view of a content item.
func (hb *HandlerBundle) RecordViewHandler(c *gin.Context) {
	kind, id := c.Param("kind"), c.Param("id")
	n, err := hb.Views.Increment(c.Request.Context(), kind, id)
	if err != nil {
		hb.getLogger(c).Warn("Failed to count view", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to record view")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "views": n})
}

// HealthHandler reports the latest health snapshot. Degraded backing services
// answer 503.
func (hb *HandlerBundle) HealthHandler(c *gin.Context) {
	status := utils.HealthStatus{Status: "ok"}
	if hb.Health != nil {
		status = hb.Health.Status()
	}
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
