package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应格式
type ErrorResponse struct {
	Code      int    `json:"code"`                // 错误码
	Message   string `json:"message"`             // 错误消息
	Detail    string `json:"detail,omitempty"`    // 错误详情(可选)
	Retryable bool   `json:"retryable,omitempty"` // 瞬时故障,客户端可重试
}

// MessageResponse 仅包含提示信息的响应
type MessageResponse struct {
	Message string `json:"message"`
}

// Success 成功响应,直接返回数据本身
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent 无内容响应
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Message 提示信息响应
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse{Message: message})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// Retryable 可重试错误响应
func Retryable(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
		Code:      http.StatusServiceUnavailable,
		Message:   message,
		Retryable: true,
	})
}
