package controllers

import (
	"time"

	"github.com/BerniceZTT/outreach_crm/config"
	"github.com/BerniceZTT/outreach_crm/metrics"
	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/repository"
	"github.com/BerniceZTT/outreach_crm/service"
)

// Handler HTTP 핸들러가 공유하는 의존성
type Handler struct {
	Config    *config.Config
	Store     *repository.Store
	Customers *repository.CustomerRepository
	CallLogs  *repository.CallLogRepository
	Sessions  *service.SessionStore
	Templates *service.TemplateGenerator
	Mailer    *service.Mailer // SMTP 미설정이면 nil
	Metrics   *metrics.Metrics
	Location  *time.Location
	Now       func() time.Time
}

// NewHandler 저장소와 서비스로 핸들러 구성
func NewHandler(cfg *config.Config, store *repository.Store, sessions *service.SessionStore, m *metrics.Metrics) *Handler {
	loc := cfg.Location()
	callLogs := repository.NewCallLogRepository(store)
	callLogs.PrepareEdit = service.PrepareCallLogEdit
	return &Handler{
		Config:    cfg,
		Store:     store,
		Customers: repository.NewCustomerRepository(store, loc),
		CallLogs:  callLogs,
		Sessions:  sessions,
		Templates: service.NewTemplateGenerator(models.SenderIdentity{
			Name:  cfg.SenderFallbackName,
			Email: cfg.SenderFallbackEmail,
			Phone: cfg.SenderFallbackPhone,
		}),
		Mailer:   service.NewSMTPMailer(cfg),
		Metrics:  m,
		Location: loc,
		Now:      time.Now,
	}
}
