package utils

import (
	"errors"
	"fmt"

	"github.com/BerniceZTT/outreach_crm/models"

	"github.com/go-playground/validator/v10"
)

// Validate 전역 검증기
var Validate = newValidator()

// InitValidator 검증기 재생성 및 커스텀 규칙 등록
func InitValidator() {
	Validate = newValidator()
}

func newValidator() *validator.Validate {
	v := validator.New()

	// 도메인 어휘 규칙
	_ = v.RegisterValidation("customer_status", validateCustomerStatus)
	_ = v.RegisterValidation("connection_status", validateConnectionStatus)
	_ = v.RegisterValidation("follow_up_action", validateFollowUpAction)
	_ = v.RegisterValidation("seller_reaction", validateSellerReaction)
	_ = v.RegisterValidation("customer_sort", validateCustomerSort)
	return v
}

func validateCustomerStatus(fl validator.FieldLevel) bool {
	return models.CustomerStatus(fl.Field().String()).IsValid()
}

func validateConnectionStatus(fl validator.FieldLevel) bool {
	return models.ConnectionStatus(fl.Field().String()).IsValid()
}

func validateFollowUpAction(fl validator.FieldLevel) bool {
	return models.FollowUpAction(fl.Field().String()).IsValid()
}

func validateSellerReaction(fl validator.FieldLevel) bool {
	return models.SellerReaction(fl.Field().String()).IsValid()
}

func validateCustomerSort(fl validator.FieldLevel) bool {
	return models.CustomerSort(fl.Field().String()).IsValid()
}

// ValidateStruct 구조체 검증. 실패 시 ValidationError 반환
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return NewValidationError(fieldMessage(fe))
	}
	return NewValidationError(err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s은(는) 필수 입력 항목입니다.", fe.Field())
	case "email":
		return fmt.Sprintf("%s 형식이 올바르지 않습니다.", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s 날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)", fe.Field())
	default:
		return fmt.Sprintf("%s 값이 올바르지 않습니다: %v", fe.Field(), fe.Value())
	}
}
