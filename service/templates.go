package service

import (
	"fmt"
	"strings"

	"github.com/BerniceZTT/outreach_crm/models"
)

// TemplateGenerator 아웃바운드 메시지 템플릿 생성. 입출력 없는 순수 함수 모음
type TemplateGenerator struct {
	fallback models.SenderIdentity
}

// NewTemplateGenerator 발신자 정보가 비었을 때 쓸 기본값으로 생성
func NewTemplateGenerator(fallback models.SenderIdentity) *TemplateGenerator {
	return &TemplateGenerator{fallback: fallback}
}

// Sender 비어 있는 발신자 필드를 기본값으로 채운다
func (g *TemplateGenerator) Sender(sender *models.SenderIdentity) models.SenderIdentity {
	out := g.fallback
	if sender == nil {
		return out
	}
	if strings.TrimSpace(sender.Name) != "" {
		out.Name = sender.Name
	}
	if strings.TrimSpace(sender.Email) != "" {
		out.Email = sender.Email
	}
	if strings.TrimSpace(sender.Phone) != "" {
		out.Phone = sender.Phone
	}
	return out
}

// EmailSubject 이메일 제목
func (g *TemplateGenerator) EmailSubject(recipient string) string {
	return fmt.Sprintf("[입점 안내] %s님께 드리는 입점 제안", recipient)
}

// Email 이메일 템플릿
func (g *TemplateGenerator) Email(recipient string, sender *models.SenderIdentity) string {
	s := g.Sender(sender)
	return fmt.Sprintf(`안녕하세요, %s님

커머스팀 MD %s입니다.

오늘 전화로 연락드렸으나 통화가 어려워 이메일로 인사드립니다.

입점 절차와 혜택을 정리한 소개서를 함께 안내드리고 싶습니다.
편하신 시간에 회신 주시거나 아래 연락처로 연락 부탁드립니다.

이메일: %s
전화: %s

감사합니다.
%s 드림`, recipient, s.Name, s.Email, s.Phone, s.Name)
}

// Kakao 카카오톡 템플릿
func (g *TemplateGenerator) Kakao(recipient string, sender *models.SenderIdentity) string {
	s := g.Sender(sender)
	return fmt.Sprintf("[커머스팀] %s님 안녕하세요. MD %s입니다. 오늘 연락드렸으나 통화가 어려워 메시지 남깁니다. 입점 상담을 원하시면 편하게 회신 부탁드립니다. (문의: %s)",
		recipient, s.Name, s.Phone)
}

// SMS 문자 템플릿
func (g *TemplateGenerator) SMS(recipient string, sender *models.SenderIdentity) string {
	s := g.Sender(sender)
	return fmt.Sprintf("[커머스팀] %s님, MD %s입니다. 입점 상담 원하시면 회신 또는 %s 로 연락 주세요. 감사합니다.",
		recipient, s.Name, s.Phone)
}

// ForChannel 채널별 기본 템플릿 (위저드 템플릿 단계)
func (g *TemplateGenerator) ForChannel(ch models.Channel, recipient string, sender *models.SenderIdentity) models.RenderedTemplate {
	switch ch {
	case models.ChannelEmail:
		return models.RenderedTemplate{
			ID:       "email-default",
			Channel:  ch,
			Title:    "이메일 템플릿",
			Subject:  g.EmailSubject(recipient),
			Messages: []string{g.Email(recipient, sender)},
		}
	case models.ChannelKakao:
		return models.RenderedTemplate{
			ID:       "kakao-default",
			Channel:  ch,
			Title:    "카카오톡 템플릿",
			Messages: []string{g.Kakao(recipient, sender)},
		}
	default:
		return models.RenderedTemplate{
			ID:       "sms-default",
			Channel:  models.ChannelSMS,
			Title:    "문자 템플릿",
			Messages: []string{g.SMS(recipient, sender)},
		}
	}
}

type libraryEntry struct {
	models.MessageTemplate
	render func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string
}

// 템플릿 라이브러리. 일부 항목은 여러 메시지를 순서대로 보낸다
var templateLibrary = []libraryEntry{
	{
		MessageTemplate: models.MessageTemplate{
			ID:          "kakao-guide-request",
			Channel:     models.ChannelKakao,
			Title:       "(카톡) 셀러가 소개서 및 가이드를 요청한 경우",
			Description: "소개서와 입점 절차를 여러 메시지로 나눠 안내",
			Multi:       true,
		},
		render: func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string {
			return []string{
				fmt.Sprintf("안녕하세요 %s님, 방금 전화로 인사드린 커머스팀 MD %s입니다.", recipient, s.Name),
				"안내드린 입점 소개서와 가이드를 아래에 전달드립니다. 확인 부탁드립니다 :)",
				"[입점 절차 안내]\n1. 파트너센터 회원가입\n2. 공유드린 가이드에 따라 결제 서비스 신청\n3. 신청 완료 알림을 받으신 후 사업자등록번호를 이 채팅방에 남겨주시면 첫 달 수수료 면제 혜택을 적용해드립니다.",
				"추가로 궁금하신 점이나 어려운 부분이 있으시면 언제든지 편하게 말씀해주세요. 빠르게 도와드리겠습니다.",
			}
		},
	},
	{
		MessageTemplate: models.MessageTemplate{
			ID:          "kakao-application-completed",
			Channel:     models.ChannelKakao,
			Title:       "(카톡) 셀러가 청약 신청을 마친 경우",
			Description: "심사 안내와 상품 등록 가이드",
			Multi:       true,
		},
		render: func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string {
			return []string{
				"확인 감사합니다. 심사 완료 후 혜택이 적용될 수 있도록 준비하겠습니다.",
				"상품 등록 가이드를 공유드립니다. 안내에 따라 진행해보시고, 궁금한 점이 있으시면 언제든지 편하게 말씀해주세요.",
			}
		},
	},
	{
		MessageTemplate: models.MessageTemplate{
			ID:          "kakao-approval-completed",
			Channel:     models.ChannelKakao,
			Title:       "(카톡) 셀러의 청약 승인이 끝난 경우",
			Description: "기획전 참여 안내",
		},
		render: func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string {
			return []string{
				fmt.Sprintf("%s님, 청약 승인이 확인되어 기획전 참여 안내를 전달드립니다. 참여를 원하시면 MD %s에게 회신 부탁드립니다.", recipient, s.Name),
			}
		},
	},
	{
		MessageTemplate: models.MessageTemplate{
			ID:          "sms-guide-request",
			Channel:     models.ChannelSMS,
			Title:       "(문자) 셀러가 소개서 및 가이드를 요청한 경우",
			Description: "이메일 발송 사실 안내",
		},
		render: func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string {
			return []string{
				fmt.Sprintf("안녕하세요 %s님, 커머스팀 MD %s입니다. 조금 전 전화로 안내드린 소개서와 입점 가이드를 이메일(%s)로 보내드렸습니다. 확인 후 회신 주시면 감사하겠습니다 :)", recipient, s.Name, s.Email),
			}
		},
	},
	{
		MessageTemplate: models.MessageTemplate{
			ID:          "email-intro",
			Channel:     models.ChannelEmail,
			Title:       "(이메일) 부재중 후 입점 제안",
			Description: "통화 연결이 안 된 셀러에게 보내는 첫 이메일",
		},
		render: func(g *TemplateGenerator, recipient string, s models.SenderIdentity) []string {
			return []string{g.Email(recipient, &s)}
		},
	},
}

// Library 채널별 템플릿 목록. channel 이 빈 값이나 "all" 이면 전체
func (g *TemplateGenerator) Library(channel string) []models.MessageTemplate {
	out := make([]models.MessageTemplate, 0, len(templateLibrary))
	for _, e := range templateLibrary {
		if channel == "" || channel == "all" || string(e.Channel) == channel {
			out = append(out, e.MessageTemplate)
		}
	}
	return out
}

// Render 라이브러리 템플릿에 수신자/발신자 적용
func (g *TemplateGenerator) Render(id, recipient string, sender *models.SenderIdentity) (models.RenderedTemplate, bool) {
	for _, e := range templateLibrary {
		if e.ID != id {
			continue
		}
		s := g.Sender(sender)
		rendered := models.RenderedTemplate{
			ID:       e.ID,
			Channel:  e.Channel,
			Title:    e.Title,
			Messages: e.render(g, recipient, s),
		}
		if e.Channel == models.ChannelEmail {
			rendered.Subject = g.EmailSubject(recipient)
		}
		return rendered, true
	}
	return models.RenderedTemplate{}, false
}
