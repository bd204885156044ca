package controllers

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/service"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetStatuses 상태 탭 목록과 고객 수
func (h *Handler) GetStatuses(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	counts, err := h.Customers.CountByStatus(c.Request.Context(), session.User.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, counts, "")
}

// customerFilters 쿼리 문자열의 목록 필터
func customerFilters(c *gin.Context) (models.CustomerFilters, error) {
	filters, err := models.NewCustomerFilters(c.Query("status"), c.Query("date"), c.Query("search"), c.Query("sortBy"))
	if err != nil {
		return filters, utils.NewValidationError(err.Error())
	}
	return filters, nil
}

// GetCustomerList 고객 목록
func (h *Handler) GetCustomerList(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	filters, err := customerFilters(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	customers, err := h.Customers.List(c.Request.Context(), session.User.ID, filters)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"user":    session.User.Username,
		"filters": filters,
		"count":   len(customers),
	}, "고객 목록 조회")
	utils.SuccessResponse(c, gin.H{"customers": customers, "total": len(customers)}, "")
}

// GetCustomerDetail 고객 상세
func (h *Handler) GetCustomerDetail(c *gin.Context) {
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

	customer, err := h.Customers.Get(c.Request.Context(), session.User.ID, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, customer, "")
}

// CreateCustomer 고객 등록
func (h *Handler) CreateCustomer(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var input models.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.HandleError(c, utils.NewValidationError("잘못된 요청 형식입니다"))
		return
	}
	if err := utils.ValidateStruct(input); err != nil {
		utils.HandleError(c, err)
		return
	}

	customer, err := h.Customers.Create(c.Request.Context(), session.User.ID, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, customer, "고객이 등록되었습니다", http.StatusCreated)
}

// ParseCustomer 붙여넣은 텍스트로 고객 등록
func (h *Handler) ParseCustomer(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.ParseCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewValidationError("붙여넣을 텍스트를 입력해주세요"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.HandleError(c, err)
		return
	}

	customer, err := service.CreateCustomerFromText(c.Request.Context(), h.Customers, session.User.ID, req.Text, req.Status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, customer, "고객이 등록되었습니다", http.StatusCreated)
}

// UpdateCustomer 고객 수정 (상태 변경 포함)
func (h *Handler) UpdateCustomer(c *gin.Context) {
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

	var patch models.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.HandleError(c, utils.NewValidationError("잘못된 요청 형식입니다"))
		return
	}
	if err := utils.ValidateStruct(patch); err != nil {
		utils.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Customers.Update(ctx, session.User.ID, id, patch); err != nil {
		utils.HandleError(c, err)
		return
	}
	customer, err := h.Customers.Get(ctx, session.User.ID, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, customer, "고객 정보가 수정되었습니다")
}

// DeleteCustomer 고객과 통화 기록 삭제
func (h *Handler) DeleteCustomer(c *gin.Context) {
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

	if err := h.Customers.Delete(c.Request.Context(), session.User.ID, id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, nil, "고객이 삭제되었습니다")
}

// BulkUpdateStatus 선택한 고객 상태 일괄 변경
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewValidationError("변경할 고객과 상태를 선택해주세요"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.HandleError(c, err)
		return
	}
	ids, err := utils.ParseObjectIDs(req.IDs)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	updated, err := h.Customers.BulkUpdateStatus(c.Request.Context(), session.User.ID, ids, req.Status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"updated": updated}, "상태가 변경되었습니다")
}

// ExportCustomers 현재 필터/정렬 그대로 xlsx 내보내기
func (h *Handler) ExportCustomers(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	filters, err := customerFilters(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	customers, err := h.Customers.List(c.Request.Context(), session.User.ID, filters)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteCustomerWorkbook(&buf, customers, h.Location); err != nil {
		utils.HandleError(c, utils.NewPersistenceError("엑셀 생성", err))
		return
	}

	filename := service.ExportFilename(service.ExportScope(filters.Status), h.Now().In(h.Location))
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))

	utils.LogInfo(map[string]interface{}{"user": session.User.Username, "rows": len(customers), "file": filename}, "고객 목록 내보내기")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
