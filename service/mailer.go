package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerniceZTT/outreach_crm/config"
	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"gopkg.in/gomail.v2"
)

// Mailer 이메일 템플릿 발송
type Mailer struct {
	from string
	send func(msgs ...*gomail.Message) error
}

// NewSMTPMailer SMTP 설정으로 생성. SMTP_HOST 가 없으면 nil
func NewSMTPMailer(cfg *config.Config) *Mailer {
	if !cfg.MailEnabled() {
		return nil
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SenderFallbackEmail
	}
	return &Mailer{from: from, send: dialer.DialAndSend}
}

// NewMailer 임의의 gomail.Sender 로 발송하는 메일러
func NewMailer(from string, sender gomail.Sender) *Mailer {
	return &Mailer{
		from: from,
		send: func(msgs ...*gomail.Message) error {
			return gomail.Send(sender, msgs...)
		},
	}
}

// SendTemplate 렌더링된 이메일 템플릿을 고객에게 발송. 회신 주소는 발신 MD
func (m *Mailer) SendTemplate(ctx context.Context, to string, sender models.SenderIdentity, tpl models.RenderedTemplate) error {
	if strings.TrimSpace(to) == "" {
		return utils.NewValidationError("고객 이메일 주소가 없습니다")
	}
	if tpl.Channel != models.ChannelEmail {
		return utils.NewValidationError("이메일 템플릿만 발송할 수 있습니다")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, sender.Name)
	if sender.Email != "" {
		msg.SetHeader("Reply-To", sender.Email)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.Subject)
	msg.SetBody("text/plain", tpl.Text())

	if err := m.send(msg); err != nil {
		utils.LogError(err, map[string]interface{}{"to": to, "template": tpl.ID}, "이메일 발송 실패")
		return utils.NewPersistenceError("이메일 발송", fmt.Errorf("smtp: %w", err))
	}

	utils.LogInfo(map[string]interface{}{"to": to, "template": tpl.ID}, "이메일 발송")
	return nil
}
