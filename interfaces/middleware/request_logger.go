package middleware

import (
	"net/http"
	"time"

	"playlist-service/domain/dto"
	"playlist-service/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request. The query string is not logged.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		entry := logger.GetLogger().WithFields(logrus.Fields{
			"method":  ctx.Request.Method,
			"path":    ctx.Request.URL.Path,
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  ctx.ClientIP(),
		})
		switch {
		case ctx.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case ctx.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// Recovery turns a panic into a generic 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		logger.GetLogger().WithField("error", recovered).WithField("path", ctx.Request.URL.Path).Error("Application panic recovered")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "Internal server error"})
	})
}
