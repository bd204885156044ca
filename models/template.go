package models

import "strings"

// MessageTemplate 템플릿 라이브러리 항목
type MessageTemplate struct {
	ID          string  `json:"id"`
	Channel     Channel `json:"channel"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Multi       bool    `json:"multi"` // 여러 메시지를 순서대로 보내는 템플릿
}

// RenderedTemplate 수신자/발신자가 적용된 템플릿
type RenderedTemplate struct {
	ID       string   `json:"id"`
	Channel  Channel  `json:"channel"`
	Title    string   `json:"title"`
	Subject  string   `json:"subject,omitempty"`
	Messages []string `json:"messages"`
}

// Text 메시지를 빈 줄로 이어 붙인 전체 문구
func (t RenderedTemplate) Text() string {
	return strings.Join(t.Messages, "\n\n")
}

// SendEmailRequest 이메일 템플릿 발송 요청
type SendEmailRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	TemplateID string `json:"template_id"`
}
