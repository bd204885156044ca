package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// SessionResolver 토큰으로 현재 세션 조회
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.AuthSession, error)
}

// AuthMiddleware 인증 미들웨어. 요청마다 세션을 한 번만 조회해 컨텍스트에 둔다
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		utils.Logger.Debug().
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("authorization", getShortAuthHeader(authHeader)).
			Msg("인증 확인")

		token := utils.BearerToken(authHeader)
		if token == "" {
			utils.Logger.Info().Msg("Authorization 헤더가 없거나 형식이 잘못됨")
			abortUnauthorized(c, "로그인이 필요합니다", "MISSING_TOKEN")
			return
		}

		session, err := sessions.CurrentUser(c.Request.Context(), token)
		if err != nil {
			utils.Logger.Warn().Err(err).Str("token", utils.ShortToken(token)).Msg("토큰 검증 실패")
			if errors.Is(err, utils.ErrPersistence) {
				utils.HandleError(c, err)
				return
			}
			abortUnauthorized(c, "유효하지 않은 토큰입니다", "INVALID_TOKEN")
			return
		}
		if session == nil {
			utils.Logger.Info().Str("token", utils.ShortToken(token)).Msg("세션 만료")
			abortUnauthorized(c, "세션이 만료되었습니다. 다시 로그인해주세요", "SESSION_EXPIRED")
			return
		}

		c.Set(utils.SessionContextKey, session)

		utils.Logger.Debug().
			Str("username", session.User.Username).
			Msg("인증 성공")

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// getShortAuthHeader 로그용으로 잘라낸 인증 헤더
func getShortAuthHeader(header string) string {
	if header == "" {
		return ""
	}
	if len(header) > 15 {
		return header[:15] + "..."
	}
	return header
}
