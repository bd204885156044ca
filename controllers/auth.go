package controllers

import (
	"net/http"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
)

// Login 로그인
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewValidationError("아이디와 비밀번호를 입력해주세요"))
		return
	}

	utils.Logger.Info().Str("username", req.Username).Msg("로그인 시도")

	session, err := h.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, session, "로그인 성공")
}

// Logout 로그아웃. 세션이 이미 없어도 성공으로 응답한다
func (h *Handler) Logout(c *gin.Context) {
	token := utils.BearerToken(c.GetHeader("Authorization"))
	if token != "" {
		if err := h.Sessions.Logout(c.Request.Context(), token); err != nil {
			utils.HandleError(c, err)
			return
		}
	}
	utils.SuccessResponse(c, nil, "로그아웃 되었습니다")
}

// ValidateToken 현재 세션 확인
func (h *Handler) ValidateToken(c *gin.Context) {
	session, err := utils.GetSession(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user":       session.User,
		"expires_at": session.ExpiresAt,
	})
}
