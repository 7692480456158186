package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/service"
)

// internalErrorMessage 500 响应不携带底层错误,细节只写日志
const internalErrorMessage = "Internal server error"

// HandleError 将业务错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = service.Internal(internalErrorMessage, err)
	}

	switch svcErr.Kind {
	case service.KindUnauthorized:
		Error(c, http.StatusUnauthorized, svcErr.Message, "")
	case service.KindForbidden:
		Error(c, http.StatusForbidden, svcErr.Message, "")
	case service.KindNotFound:
		Error(c, http.StatusNotFound, svcErr.Message, "")
	case service.KindConflict:
		Error(c, http.StatusConflict, svcErr.Message, "")
	case service.KindValidation:
		Error(c, http.StatusBadRequest, svcErr.Message, "")
	case service.KindTransient:
		logError(c, svcErr).Warn("store temporarily unavailable")
		Retryable(c, svcErr.Message)
	default:
		logError(c, svcErr).Error("request failed")
		message := svcErr.Message
		if message == "" {
			message = internalErrorMessage
		}
		Error(c, http.StatusInternalServerError, message, "")
	}
}

func logError(c *gin.Context, err error) *logrus.Entry {
	return logging.GetLogger().WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"error":      err.Error(),
	})
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, "")
}
