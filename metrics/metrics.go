package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 콜 위저드 제출 결과
const (
	OutcomeCommitted        = "committed"
	OutcomeValidationFailed = "validation_failed"
	OutcomeFailed           = "failed"
	OutcomeCompensated      = "compensated"
)

// Metrics 전용 Prometheus 레지스트리와 CRM 지표
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	wizardSubmissions *prometheus.CounterVec
	callLogRevisions  prometheus.Counter
}

// New 레지스트리 생성 및 지표 등록
func New() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_http_requests_total",
		Help: "라우트와 상태 코드별 HTTP 요청 수",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "라우트별 HTTP 처리 시간",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	wizard := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_wizard_submissions_total",
		Help: "결과별 콜 위저드 제출 수",
	}, []string{"outcome"})
	revisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crm_call_log_revisions_total",
		Help: "통화 기록 수정 횟수",
	})
	registry.MustRegister(requests, duration, wizard, revisions)

	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		wizardSubmissions: wizard,
		callLogRevisions:  revisions,
	}
}

// Handler /metrics 엔드포인트
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware 요청마다 라우트 패턴 기준으로 기록
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// WizardSubmitted 위저드 제출 결과 기록
func (m *Metrics) WizardSubmitted(outcome string) {
	if m == nil {
		return
	}
	m.wizardSubmissions.WithLabelValues(outcome).Inc()
}

// CallLogRevised 통화 기록 수정 기록
func (m *Metrics) CallLogRevised() {
	if m == nil {
		return
	}
	m.callLogRevisions.Inc()
}

// Registry 테스트용 레지스트리 노출
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
