package routes

import (
	"github.com/BerniceZTT/outreach_crm/controllers"
	"github.com/BerniceZTT/outreach_crm/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 인증 라우트
func RegisterAuthRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	group := router.Group("/api/auth")

	// 공개 라우트. 로그인은 IP별 요청 제한
	group.POST("/login", middleware.RateLimitByIP(h.Config.RateLimitPerMinute), h.Login)
	group.POST("/logout", h.Logout)
	group.GET("/events", h.SessionEvents)

	// 인증 필요
	group.GET("/validate", auth, h.ValidateToken)
}
