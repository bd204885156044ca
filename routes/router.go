package routes

import (
	"github.com/BerniceZTT/outreach_crm/controllers"
	"github.com/BerniceZTT/outreach_crm/middleware"
	"github.com/BerniceZTT/outreach_crm/repository"

	"github.com/gin-gonic/gin"
)

// NewRouter 미들웨어 체인을 구성하고 라우트 등록
func NewRouter(h *controllers.Handler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SecureHeaders(!h.Config.Debug()))
	router.Use(middleware.CORS(h.Config.AllowedOrigins()))
	router.Use(h.Metrics.Middleware())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.OperationLoggerMiddleware(repository.NewOperationLogRepository(h.Store)))

	RegisterRoutes(router, h)
	return router
}

// RegisterRoutes 모든 라우트 등록
func RegisterRoutes(router *gin.Engine, h *controllers.Handler) {
	auth := middleware.AuthMiddleware(h.Sessions)

	RegisterAuthRoutes(router, h, auth)
	RegisterCustomerRoutes(router, h, auth)
	RegisterCallLogRoutes(router, h, auth)
	RegisterTemplateRoutes(router, h, auth)

	// 상태 탭
	router.GET("/api/statuses", auth, h.GetStatuses)

	// 운영
	router.GET("/api/health", h.Health)
	router.GET("/api/db-status", h.DbStatus)
	router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
}
