package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind 오류 종류
type ErrorKind string

const (
	KindValidation  ErrorKind = "VALIDATION_ERROR"
	KindAuth        ErrorKind = "AUTH_ERROR"
	KindNotFound    ErrorKind = "RESOURCE_NOT_FOUND"
	KindPersistence ErrorKind = "PERSISTENCE_ERROR"
)

// 사용자에게 보여주는 일반 실패 문구. 백엔드 상세 오류는 노출하지 않는다
const genericFailureMessage = "요청을 처리하지 못했습니다. 잠시 후 다시 시도해주세요."

// errors.Is 비교용 센티넬
var (
	ErrValidation  = &AppError{Kind: KindValidation}
	ErrAuth        = &AppError{Kind: KindAuth}
	ErrNotFound    = &AppError{Kind: KindNotFound}
	ErrPersistence = &AppError{Kind: KindPersistence}
)

// AppError 애플리케이션 오류
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error error 인터페이스 구현
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 하위 오류 반환
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 같은 종류의 오류인지 비교
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode 오류 종류에 대응하는 HTTP 상태코드
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage 사용자에게 보여줄 문구
func (e *AppError) UserMessage() string {
	if e.Kind == KindPersistence || e.Message == "" {
		return genericFailureMessage
	}
	return e.Message
}

// NewValidationError 필수값 누락 등 입력 오류
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewAuthError 인증 실패/세션 만료
func NewAuthError(message string) *AppError {
	return &AppError{Kind: KindAuth, Message: message}
}

// NewNotFoundError 리소스 없음(또는 소유하지 않음)
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + "을(를) 찾을 수 없습니다"}
}

// NewPersistenceError 저장소 호출 실패
func NewPersistenceError(operation string, err error) *AppError {
	return &AppError{Kind: KindPersistence, Message: operation + " 실패", Err: err}
}

// HandleError 오류를 로그로 남기고 적절한 응답을 반환
func HandleError(c *gin.Context, err error) {
	if c == nil || err == nil {
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{Kind: KindPersistence, Message: "처리 중 오류", Err: err}
	}

	event := Logger.Warn()
	if appErr.Kind == KindPersistence {
		event = Logger.Error()
	}
	event.
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Str("kind", string(appErr.Kind)).
		Msg("API 오류")

	c.AbortWithStatusJSON(appErr.StatusCode(), gin.H{
		"success": false,
		"error":   appErr.UserMessage(),
		"code":    appErr.Kind,
	})
}

// SuccessResponse 성공 응답
func SuccessResponse(c *gin.Context, data interface{}, message string, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := gin.H{"success": true}
	if data != nil {
		response["data"] = data
	}
	if message != "" {
		response["message"] = message
	}

	c.JSON(code, response)
}
