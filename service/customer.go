package service

import (
	"context"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerCreator 고객 생성 경계
type CustomerCreator interface {
	Create(ctx context.Context, owner primitive.ObjectID, input models.CustomerInput) (*models.Customer, error)
}

// CreateCustomerFromText 붙여넣은 텍스트를 파싱해 고객 생성. 이름이 없으면 ValidationError
func CreateCustomerFromText(ctx context.Context, customers CustomerCreator, owner primitive.ObjectID, text string, status models.CustomerStatus) (*models.Customer, error) {
	input := ParseCustomerText(text)
	input.Status = status

	utils.Logger.Debug().
		Str("name", input.Name).
		Str("company", input.Company).
		Msg("붙여넣기 텍스트 파싱")

	return customers.Create(ctx, owner, input)
}
