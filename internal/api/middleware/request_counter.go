package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/maria-ai/maria-selector/internal/stats"
)

// RequestCounterMiddleware 请求计数中间件
// 所有通过的请求计入统计收集器的滑动窗口
func RequestCounterMiddleware(collector *stats.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		collector.RecordRequest()
		c.Next()
	}
}
