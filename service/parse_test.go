package service

import (
	"context"
	"testing"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseCustomerText(t *testing.T) {
	text := "이름\r\n김민수\r\n\r\n회사\r\n민수상회\r\n사업자번호\r\n이메일\r\n  minsu@example.com  \r\n전화\r\n010-1111-2222\r\n메모\r\n무시됨"

	input := ParseCustomerText(text)
	assert.Equal(t, models.CustomerInput{
		Name:    "김민수",
		Company: "민수상회",
		Email:   "minsu@example.com",
		Phone:   "010-1111-2222",
	}, input)
}

func TestParseCustomerTextWithoutLabels(t *testing.T) {
	assert.Equal(t, models.CustomerInput{}, ParseCustomerText("그냥 메모\n두 번째 줄"))
	assert.Equal(t, models.CustomerInput{}, ParseCustomerText("이름"))
}

type recordingCreator struct {
	got models.CustomerInput
}

func (r *recordingCreator) Create(ctx context.Context, owner primitive.ObjectID, input models.CustomerInput) (*models.Customer, error) {
	r.got = input
	if input.Name == "" {
		return nil, utils.NewValidationError("이름은 필수 입력 항목입니다.")
	}
	return &models.Customer{Name: input.Name, Status: input.Status, OwnerUserID: owner}, nil
}

func TestCreateCustomerFromText(t *testing.T) {
	creator := &recordingCreator{}
	owner := primitive.NewObjectID()

	customer, err := CreateCustomerFromText(context.Background(), creator, owner, "이름\n김민수\n웹사이트\nhttps://minsu.shop", models.StatusSignupPromised)
	require.NoError(t, err)
	assert.Equal(t, "김민수", customer.Name)
	assert.Equal(t, "https://minsu.shop", creator.got.Website)
	assert.Equal(t, models.StatusSignupPromised, creator.got.Status)

	_, err = CreateCustomerFromText(context.Background(), creator, owner, "회사\n민수상회", "")
	assert.ErrorIs(t, err, utils.ErrValidation)
}
