package middleware

import (
	"time"

	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 요청 ID 헤더
const RequestIDHeader = "X-Request-ID"

// RequestID 요청마다 ID 부여. 클라이언트가 보낸 값이 있으면 그대로 쓴다
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(utils.RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger 요청/응답 로그
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := utils.GetRequestID(c)
		method := c.Request.Method
		path := c.Request.URL.Path

		utils.LogApiRequest(requestID, method, path, c.Request.URL.Query())

		c.Next()

		utils.LogApiResponse(requestID, method, path, c.Writer.Status(), time.Since(start))
	}
}
