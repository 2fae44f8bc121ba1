package middleware

import "github.com/gin-gonic/gin"

// NoSniff 禁止浏览器猜测上传文件的类型
func NoSniff() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
