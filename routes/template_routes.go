package routes

import (
	"github.com/BerniceZTT/outreach_crm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterTemplateRoutes 메시지 템플릿 라우트
func RegisterTemplateRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	templateRoutes := router.Group("/api/templates")
	templateRoutes.Use(auth)

	templateRoutes.GET("", h.GetTemplates)
	templateRoutes.POST("/email/send", h.SendEmailTemplate)
	templateRoutes.GET("/:id", h.GetTemplate)
}
