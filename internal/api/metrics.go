package api

import (
	"github.com/gin-gonic/gin"
	"github.com/surya-d-naidu/UniOD/internal/metrics"
	"gorm.io/gorm"
)

// MetricsHandler Prometheus 指标处理器
// 抓取时刷新连接池指标
func MetricsHandler(db *gorm.DB) gin.HandlerFunc {
	handler := metrics.Handler()
	return func(c *gin.Context) {
		if db != nil {
			_ = metrics.UpdateDatabaseConnections(db)
		}
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
