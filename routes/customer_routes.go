package routes

import (
	"github.com/BerniceZTT/outreach_crm/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterCustomerRoutes 고객 라우트
func RegisterCustomerRoutes(router *gin.Engine, h *controllers.Handler, auth gin.HandlerFunc) {
	customerRoutes := router.Group("/api/customers")
	customerRoutes.Use(auth)

	customerRoutes.GET("", h.GetCustomerList)
	customerRoutes.POST("", h.CreateCustomer)
	customerRoutes.POST("/parse", h.ParseCustomer)
	customerRoutes.POST("/bulk-status", h.BulkUpdateStatus)
	customerRoutes.GET("/export", h.ExportCustomers)
	customerRoutes.GET("/:id", h.GetCustomerDetail)
	customerRoutes.PUT("/:id", h.UpdateCustomer)
	customerRoutes.DELETE("/:id", h.DeleteCustomer)
	customerRoutes.GET("/:id/call-logs", h.GetCustomerCallLogs)
	customerRoutes.POST("/:id/call-wizard/preview", h.PreviewCallWizard)
	customerRoutes.POST("/:id/call-wizard", h.RunCallWizard)
}
