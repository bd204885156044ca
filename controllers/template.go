package controllers

import (
	"strings"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// 고객을 지정하지 않았을 때 미리보기 수신자
const previewRecipient = "OOO"

// TemplateItem 라이브러리 항목과 렌더링 결과
type TemplateItem struct {
	models.MessageTemplate
	Rendered models.RenderedTemplate `json:"rendered"`
}

// recipientFor customer_id 쿼리가 있으면 그 고객 이름, 없으면 recipient 쿼리나 자리표시자
func (h *Handler) recipientFor(c *gin.Context, session *models.AuthSession) (string, error) {
	if raw := c.Query("customer_id"); raw != "" {
		id, err := utils.ParseObjectID(raw)
		if err != nil {
			return "", err
		}
		customer, err := h.Customers.Get(c.Request.Context(), session.User.ID, id)
		if err != nil {
			return "", err
		}
		return customer.Label(), nil
	}
	if r := strings.TrimSpace(c.Query("recipient")); r != "" {
		return r, nil
	}
	return previewRecipient, nil
}

// GetTemplates 템플릿 라이브러리 (channel=all|kakao|sms|email). 발신자는 로그인 사용자
func (h *Handler) GetTemplates(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	channel := c.DefaultQuery("channel", "all")
	switch channel {
	case "all", string(models.ChannelEmail), string(models.ChannelKakao), string(models.ChannelSMS):
	default:
		utils.HandleError(c, utils.NewValidationError("알 수 없는 채널입니다: "+channel))
		return
	}

	recipient, err := h.recipientFor(c, session)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	sender := session.User.Sender()
	library := h.Templates.Library(channel)
	items := make([]TemplateItem, 0, len(library))
	for _, tpl := range library {
		rendered, _ := h.Templates.Render(tpl.ID, recipient, &sender)
		items = append(items, TemplateItem{MessageTemplate: tpl, Rendered: rendered})
	}

	utils.SuccessResponse(c, gin.H{
		"templates": items,
		"sender":    h.Templates.Sender(&sender),
	}, "")
}

// GetTemplate 템플릿 하나 렌더링
func (h *Handler) GetTemplate(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	recipient, err := h.recipientFor(c, session)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	sender := session.User.Sender()
	rendered, ok := h.Templates.Render(c.Param("id"), recipient, &sender)
	if !ok {
		utils.HandleError(c, utils.NewNotFoundError("템플릿"))
		return
	}
	utils.SuccessResponse(c, rendered, "")
}

// SendEmailTemplate 이메일 템플릿을 고객 이메일로 발송
func (h *Handler) SendEmailTemplate(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if h.Mailer == nil {
		utils.HandleError(c, utils.NewValidationError("메일 발송이 설정되어 있지 않습니다"))
		return
	}

	var req models.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewValidationError("고객을 선택해주세요"))
		return
	}
	customerID, err := utils.ParseObjectID(req.CustomerID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	customer, err := h.Customers.Get(ctx, session.User.ID, customerID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	userSender := session.User.Sender()
	sender := h.Templates.Sender(&userSender)

	var tpl models.RenderedTemplate
	if req.TemplateID == "" {
		tpl = h.Templates.ForChannel(models.ChannelEmail, customer.Label(), &sender)
	} else {
		rendered, ok := h.Templates.Render(req.TemplateID, customer.Label(), &sender)
		if !ok {
			utils.HandleError(c, utils.NewNotFoundError("템플릿"))
			return
		}
		tpl = rendered
	}

	if err := h.Mailer.SendTemplate(ctx, customer.Email, sender, tpl); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"to": customer.Email, "template_id": tpl.ID}, "이메일을 발송했습니다")
}
