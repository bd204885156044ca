package routes

import (
	"github.com/BerniceZTT/outreach_crm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterCallLogRoutes 통화 기록 라우트
func RegisterCallLogRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	callLogRoutes := router.Group("/api/call-logs")
	callLogRoutes.Use(auth)

	callLogRoutes.GET("", h.GetCallLogs)
	callLogRoutes.PUT("/:id", h.UpdateCallLog)
	callLogRoutes.GET("/:id/history", h.GetCallLogHistory)
	callLogRoutes.GET("/:id/summary", h.GetCallLogSummary)
}
