package controllers

import (
	"net/http"

	"github.com/BerniceZTT/outreach_crm/repository"

	"github.com/gin-gonic/gin"
)

// Health 헬스 체크
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DbStatus 데이터베이스 연결 상태와 컬렉션별 문서 수
func (h *Handler) DbStatus(c *gin.Context) {
	status := repository.GetDatabaseStatus(c.Request.Context(), h.Store)
	code := http.StatusOK
	if !status.Connected {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
