package controllers

import (
	"errors"
	"net/http"

	"github.com/BerniceZTT/outreach_crm/metrics"
	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/service"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// wizardFor 세션 사용자의 고객으로 위저드 시작
func (h *Handler) wizardFor(c *gin.Context) (*service.Wizard, *models.AuthSession, bool) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return nil, nil, false
	}
	customerID, err := utils.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return nil, nil, false
	}
	customer, err := h.Customers.Get(c.Request.Context(), session.User.ID, customerID)
	if err != nil {
		utils.HandleError(c, err)
		return nil, nil, false
	}
	return service.NewWizard(*customer, session.User.Sender(), h.Templates), session, true
}

// PreviewCallWizard 현재 선택으로 자동 입력될 값과 템플릿 미리보기.
// 선택이 덜 된 경우 진행 가능한 단계까지만 보여준다
func (h *Handler) PreviewCallWizard(c *gin.Context) {
	wizard, _, ok := h.wizardFor(c)
	if !ok {
		return
	}

	var req models.CallWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewValidationError("잘못된 요청 형식입니다"))
		return
	}

	if req.ConnectionStatus != "" {
		if err := wizard.SelectConnection(req.ConnectionStatus); err != nil {
			utils.HandleError(c, err)
			return
		}
		if err := wizard.Next(); err != nil {
			utils.HandleError(c, err)
			return
		}
		for _, action := range req.FollowUpAction {
			if err := wizard.ToggleFollowUp(action); err != nil {
				utils.HandleError(c, err)
				return
			}
		}
	}

	utils.SuccessResponse(c, wizard.State(), "")
}

// RunCallWizard 위저드 입력을 단계대로 적용하고 통화 기록 생성 + 고객 상태 변경
func (h *Handler) RunCallWizard(c *gin.Context) {
	wizard, session, ok := h.wizardFor(c)
	if !ok {
		return
	}

	var req models.CallWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Metrics.WizardSubmitted(metrics.OutcomeValidationFailed)
		utils.HandleError(c, utils.NewValidationError("잘못된 요청 형식입니다"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.Metrics.WizardSubmitted(metrics.OutcomeValidationFailed)
		utils.HandleError(c, err)
		return
	}
	if err := req.FollowUpAction.Validate(); err != nil {
		h.Metrics.WizardSubmitted(metrics.OutcomeValidationFailed)
		utils.HandleError(c, utils.NewValidationError(err.Error()))
		return
	}
	if err := wizard.Replay(req); err != nil {
		h.Metrics.WizardSubmitted(metrics.OutcomeValidationFailed)
		utils.HandleError(c, err)
		return
	}

	created, err := wizard.Submit(c.Request.Context(), session.User.ID, h.CallLogs, h.Customers)
	if err != nil {
		h.handleSubmitError(c, err)
		return
	}

	h.Metrics.WizardSubmitted(metrics.OutcomeCommitted)
	utils.SuccessResponse(c, gin.H{
		"call_log": created,
		"state":    wizard.State(),
	}, "통화 기록이 저장되었습니다", http.StatusCreated)
}

func (h *Handler) handleSubmitError(c *gin.Context, err error) {
	var commitErr *service.CommitError
	switch {
	case errors.Is(err, service.ErrSubmitInFlight):
		h.Metrics.WizardSubmitted(metrics.OutcomeFailed)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
			"code":    "SUBMIT_IN_FLIGHT",
		})
	case errors.As(err, &commitErr) && !commitErr.Compensated:
		// 통화 기록이 남아 있으므로 재시도하면 중복된다
		h.Metrics.WizardSubmitted(metrics.OutcomeFailed)
		utils.LogError(err, map[string]interface{}{"callLogId": commitErr.CallLogID.Hex()}, "위저드 보상 처리 실패")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":     false,
			"error":       "통화 기록은 저장되었지만 고객 상태를 변경하지 못했습니다. 고객 상태를 직접 변경해주세요.",
			"code":        string(utils.KindPersistence),
			"call_log_id": commitErr.CallLogID.Hex(),
		})
	case errors.As(err, &commitErr):
		h.Metrics.WizardSubmitted(metrics.OutcomeCompensated)
		utils.HandleError(c, err)
	case errors.Is(err, utils.ErrValidation):
		h.Metrics.WizardSubmitted(metrics.OutcomeValidationFailed)
		utils.HandleError(c, err)
	default:
		h.Metrics.WizardSubmitted(metrics.OutcomeFailed)
		utils.HandleError(c, err)
	}
}
