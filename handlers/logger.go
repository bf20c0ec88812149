package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"samayog/utils"
)

// getLogger returns the request-scoped logger if one was set, else the bundle's.
func (hb *HandlerBundle) getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.OrNop(hb.Logger)
}
