package utils

import (
	"io"
	"os"
	"time"

	"github.com/BerniceZTT/outreach_crm/config"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 전역 로거. InitLogger 호출 전에는 아무것도 출력하지 않는다
var Logger = zerolog.Nop()

// InitLogger 로그 시스템 초기화
func InitLogger(cfg *config.Config) {
	// 콘솔 출력
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	// 파일 출력 (로테이션)
	if cfg != nil && cfg.LogFile != "" {
		output = zerolog.MultiLevelWriter(output, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		})
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(zerolog.InfoLevel)

	if cfg != nil && cfg.Debug() {
		Logger = Logger.Level(zerolog.DebugLevel)
	}

	Logger.Info().Msg("로그 시스템 초기화 완료")
}

// LogApiRequest API 요청 기록
func LogApiRequest(requestID, method, url string, params interface{}) {
	Logger.Info().
		Str("requestId", requestID).
		Str("method", method).
		Str("url", url).
		Interface("params", params).
		Msg("API 요청")
}

// LogApiResponse API 응답 기록
func LogApiResponse(requestID, method, url string, statusCode int, responseTime time.Duration) {
	event := Logger.Info()
	if statusCode >= 400 {
		event = Logger.Error()
	}
	event.
		Str("requestId", requestID).
		Str("method", method).
		Str("url", url).
		Int("statusCode", statusCode).
		Dur("responseTime", responseTime).
		Msg("API 응답")
}

// LogInfo 정보 로그
func LogInfo(context map[string]interface{}, message string) {
	Logger.Info().
		Interface("context", context).
		Msg(message)
}

// LogError 오류 로그
func LogError(err error, context map[string]interface{}, message string) {
	Logger.Error().
		Err(err).
		Interface("context", context).
		Msg(message)
}

// LogDbOperation DB 작업 기록
func LogDbOperation(operation string, table string, query interface{}, result interface{}) {
	Logger.Debug().
		Str("operation", operation).
		Str("table", table).
		Interface("query", query).
		Interface("result", result).
		Msg("DB 작업")
}
