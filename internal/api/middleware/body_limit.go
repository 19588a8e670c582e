package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"exam-planner/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明长度超限直接拒绝；未声明长度时由绑定阶段读到 MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
