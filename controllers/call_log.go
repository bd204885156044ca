package controllers

import (
	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/service"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// GetCallLogs 전체 통화 기록 (고객 정보 포함)
func (h *Handler) GetCallLogs(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	logs, err := h.CallLogs.List(c.Request.Context(), session.User.ID, nil)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, logs, "")
}

// GetCustomerCallLogs 고객 한 명의 통화 기록
func (h *Handler) GetCustomerCallLogs(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	customerID, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Customers.Get(ctx, session.User.ID, customerID); err != nil {
		utils.HandleError(c, err)
		return
	}
	logs, err := h.CallLogs.List(ctx, session.User.ID, &customerID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, logs, "")
}

// UpdateCallLog 통화 기록 수정. 수정 전 상태가 이력으로 남는다
func (h *Handler) UpdateCallLog(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var patch models.CallLogPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.HandleError(c, utils.NewValidationError("잘못된 요청 형식입니다"))
		return
	}
	if err := utils.ValidateStruct(patch); err != nil {
		utils.HandleError(c, err)
		return
	}
	if patch.IsEmpty() {
		utils.HandleError(c, utils.NewValidationError("수정할 항목이 없습니다"))
		return
	}

	updated, err := h.CallLogs.Update(c.Request.Context(), session.User.ID, session.User.Username, id, patch)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	h.Metrics.CallLogRevised()
	utils.SuccessResponse(c, updated, "통화 기록이 수정되었습니다")
}

// GetCallLogHistory 통화 기록 수정 이력
func (h *Handler) GetCallLogHistory(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	entries, err := h.CallLogs.History(c.Request.Context(), session.User.ID, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, entries, "")
}

// GetCallLogSummary 클립보드 복사용 요약
func (h *Handler) GetCallLogSummary(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	id, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	log, err := h.CallLogs.Get(c.Request.Context(), session.User.ID, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"summary": service.CallLogSummary(*log)}, "")
}
