package middleware

import (
	"net/http"

	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// ErrorHandler c.Error 로 쌓인 오류를 응답 봉투로 변환
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// 이미 오류 응답이 나갔으면 건너뜀
		if c.Writer.Written() || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		if len(c.Errors) > 0 {
			utils.HandleError(c, c.Errors.Last().Err)
		}
	}
}

// Recovery 패닉 복구
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.Logger.Error().
			Interface("panic", recovered).
			Str("requestId", utils.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("서버 패닉")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "서버 내부 오류",
			"code":    string(utils.KindPersistence),
		})
	})
}
