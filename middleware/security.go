package middleware

import (
	"net/http"
	"time"

	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// SecureHeaders 보안 헤더
func SecureHeaders(production bool) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			utils.Logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("보안 헤더 검사에서 요청 차단")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitByIP IP별 분당 요청 제한. 로그인 무차별 대입 방지용
func RateLimitByIP(requestsPerMinute int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.Logger.Warn().Str("path", r.URL.Path).Str("ip", r.RemoteAddr).Msg("요청 제한 초과")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"error":"요청이 너무 많습니다. 잠시 후 다시 시도해주세요.","code":"RATE_LIMITED"}`))
		}),
	)

	return func(c *gin.Context) {
		passed := false
		limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}
