package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== CORS 跨域中间件 ====================

// CORS 面向店铺前端的跨域头
// 查询接口是只读公开数据，放开来源限制
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
