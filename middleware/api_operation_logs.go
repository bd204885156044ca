package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// 기록 대상 HTTP 메서드
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// 기록하지 않는 경로
var excludedPaths = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/validate": true,
	"/api/health":        true,
	"/api/db-status":     true,
}

// 요청 본문 기록 상한
const maxLoggedBody = 16 << 10

// OperationLogSaver 감사 로그 저장 경계
type OperationLogSaver interface {
	Save(ctx context.Context, log models.OperationLog) error
}

// bodyLogWriter 응답 본문 캡처
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// OperationLoggerMiddleware 변경 요청 감사 로그. 저장 실패는 요청 결과에 영향을 주지 않는다
func OperationLoggerMiddleware(saver OperationLogSaver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldLogOperation(c) {
			c.Next()
			return
		}

		startTime := time.Now()

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		requestBody := readRequestBody(c)
		headers := sanitizeHeaders(c.Request.Header)

		c.Next()

		operatorID, operatorName := "anonymous", "익명"
		if session, err := utils.GetSession(c); err == nil {
			operatorID = session.User.ID.Hex()
			operatorName = session.User.Username
		}

		status := c.Writer.Status()
		log := models.OperationLog{
			RequestID:     utils.GetRequestID(c),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Route:         c.FullPath(),
			OperatorID:    operatorID,
			OperatorName:  operatorName,
			RequestBody:   requestBody,
			RequestHeader: headers,
			StatusCode:    status,
			Success:       status < http.StatusBadRequest,
			OperationTime: startTime,
			ResponseTime:  time.Since(startTime).Milliseconds(),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}
		if !log.Success {
			log.ErrorMessage = responseError(blw.body.Bytes())
		}

		// 요청 컨텍스트가 끝나도 저장은 마친다
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := saver.Save(ctx, log); err != nil {
			utils.Logger.Error().Err(err).Str("path", log.Path).Msg("감사 로그 저장 실패")
			return
		}

		utils.Logger.Debug().
			Str("method", log.Method).
			Str("path", log.Path).
			Int("status", status).
			Str("operator", operatorName).
			Int64("responseTime", log.ResponseTime).
			Msg("감사 로그 저장")
	}
}

// shouldLogOperation 기록 대상 여부
func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

// readRequestBody 본문을 읽고 되돌려 놓는다. 민감 항목은 가린다
func readRequestBody(c *gin.Context) interface{} {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.Logger.Warn().Err(err).Msg("요청 본문 읽기 실패")
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if len(raw) == 0 {
		return nil
	}
	if !strings.Contains(c.ContentType(), "application/json") {
		if len(raw) > maxLoggedBody {
			raw = raw[:maxLoggedBody]
		}
		return string(raw)
	}

	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw)
	}
	return sanitizeData(body)
}

// responseError 오류 응답 봉투의 error 항목
func responseError(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// sanitizeData 민감 정보 마스킹
func sanitizeData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(v))
		for k, val := range v {
			switch strings.ToLower(k) {
			case "password", "secret", "token", "authorization", "key":
				sanitized[k] = "******"
			default:
				sanitized[k] = sanitizeData(val)
			}
		}
		return sanitized
	case []interface{}:
		sanitized := make([]interface{}, len(v))
		for i, val := range v {
			sanitized[i] = sanitizeData(val)
		}
		return sanitized
	default:
		return data
	}
}

// sanitizeHeaders 헤더 민감 정보 마스킹
func sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization":
			if len(v) > 0 {
				sanitized[k] = getShortAuthHeader(v[0])
			}
		case "cookie", "x-api-key":
			sanitized[k] = "******"
		default:
			sanitized[k] = v
		}
	}
	return sanitized
}
