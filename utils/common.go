package utils

import (
	"strings"

	"github.com/BerniceZTT/outreach_crm/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 컨텍스트 키
const (
	SessionContextKey   = "session"
	RequestIDContextKey = "requestId"
)

// GetSession 인증 미들웨어가 저장한 세션 조회
func GetSession(c *gin.Context) (*models.AuthSession, error) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, NewAuthError("로그인이 필요합니다")
	}
	session, ok := value.(*models.AuthSession)
	if !ok || session == nil {
		return nil, NewAuthError("로그인이 필요합니다")
	}
	return session, nil
}

// GetRequestID 요청 ID 조회
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// ParseObjectID 경로 파라미터 등의 문자열 ID 변환
func ParseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, NewValidationError("잘못된 ID 형식입니다")
	}
	return oid, nil
}

// ParseObjectIDs 문자열 ID 목록 변환
func ParseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseObjectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// BearerToken Authorization 헤더에서 토큰 추출
func BearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// ShortToken 로그용으로 잘라낸 토큰
func ShortToken(token string) string {
	if len(token) > 10 {
		return token[:10] + "..."
	}
	return token
}
