package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomerStatus 고객 진행 상태
type CustomerStatus string

const (
	StatusReviewThenContact   CustomerStatus = "검토후연락"
	StatusSignupPromised      CustomerStatus = "입점약속"
	StatusSignedUp            CustomerStatus = "가입완료"
	StatusApplicationReview   CustomerStatus = "청약심사"
	StatusApplicationComplete CustomerStatus = "청약완료"
)

// StatusList 파이프라인 순서대로 정렬된 상태 목록. 순서는 표시용이며 전이 제약이 아니다
var StatusList = []CustomerStatus{
	StatusReviewThenContact,
	StatusSignupPromised,
	StatusSignedUp,
	StatusApplicationReview,
	StatusApplicationComplete,
}

// DefaultCustomerStatus 상태 미지정 시 기본값
const DefaultCustomerStatus = StatusReviewThenContact

// Position 파이프라인 내 순서 (없으면 -1)
func (s CustomerStatus) Position() int {
	for i, v := range StatusList {
		if v == s {
			return i
		}
	}
	return -1
}

// IsValid 정의된 상태인지 확인
func (s CustomerStatus) IsValid() bool {
	return s.Position() >= 0
}

// Customer 고객(입점 후보 셀러)
type Customer struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Company        string             `bson:"company" json:"company"`
	BusinessNumber string             `bson:"business_number" json:"business_number"`
	Website        string             `bson:"website" json:"website"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone" json:"phone"`
	Status         CustomerStatus     `bson:"status" json:"status"`
	OwnerUserID    primitive.ObjectID `bson:"owner_user_id" json:"owner_user_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Label 메시지 수신자 표시명 (회사명 우선)
func (c Customer) Label() string {
	if strings.TrimSpace(c.Company) != "" {
		return c.Company
	}
	return c.Name
}

// CustomerInput 고객 생성 요청
type CustomerInput struct {
	Name           string         `json:"name"`
	Company        string         `json:"company"`
	BusinessNumber string         `json:"business_number"`
	Website        string         `json:"website"`
	Email          string         `json:"email" validate:"omitempty,email"`
	Phone          string         `json:"phone"`
	Status         CustomerStatus `json:"status" validate:"omitempty,customer_status"`
}

// CustomerPatch 고객 수정 요청. nil 필드는 변경하지 않음
type CustomerPatch struct {
	Name           *string         `json:"name,omitempty"`
	Company        *string         `json:"company,omitempty"`
	BusinessNumber *string         `json:"business_number,omitempty"`
	Website        *string         `json:"website,omitempty"`
	Email          *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string         `json:"phone,omitempty"`
	Status         *CustomerStatus `json:"status,omitempty" validate:"omitempty,customer_status"`
}

// ToSet $set 문서로 변환
func (p CustomerPatch) ToSet() bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Company != nil {
		set["company"] = *p.Company
	}
	if p.BusinessNumber != nil {
		set["business_number"] = *p.BusinessNumber
	}
	if p.Website != nil {
		set["website"] = *p.Website
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	return set
}

// BulkStatusRequest 일괄 상태 변경 요청
type BulkStatusRequest struct {
	IDs    []string       `json:"ids" binding:"required"`
	Status CustomerStatus `json:"status" binding:"required" validate:"customer_status"`
}

// ParseCustomerRequest 붙여넣기 텍스트로 고객 생성 요청
type ParseCustomerRequest struct {
	Text   string         `json:"text" binding:"required"`
	Status CustomerStatus `json:"status" validate:"omitempty,customer_status"`
}

// CustomerSort 고객 목록 정렬 기준
type CustomerSort string

const (
	SortLatest      CustomerSort = "latest"
	SortOldest      CustomerSort = "oldest"
	SortNameAsc     CustomerSort = "name_asc"
	SortNameDesc    CustomerSort = "name_desc"
	SortCompanyAsc  CustomerSort = "company_asc"
	SortCompanyDesc CustomerSort = "company_desc"
)

// IsValid 정의된 정렬 기준인지 확인
func (s CustomerSort) IsValid() bool {
	switch s {
	case SortLatest, SortOldest, SortNameAsc, SortNameDesc, SortCompanyAsc, SortCompanyDesc:
		return true
	}
	return false
}

// DateLayout 날짜 필터 형식
const DateLayout = "2006-01-02"

// CustomerFilters 고객 목록 필터. NewCustomerFilters 로 생성한다
type CustomerFilters struct {
	Status     CustomerStatus `form:"status" json:"status,omitempty" validate:"omitempty,customer_status"`
	DateEquals string         `form:"date" json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SearchText string         `form:"search" json:"search,omitempty"`
	SortBy     CustomerSort   `form:"sortBy" json:"sortBy,omitempty" validate:"omitempty,customer_sort"`
}

// NewCustomerFilters 필터 값 검증 후 생성. 빈 상태는 전체, 빈 정렬은 최신순
func NewCustomerFilters(status, date, search, sortBy string) (CustomerFilters, error) {
	f := CustomerFilters{
		Status:     CustomerStatus(strings.TrimSpace(status)),
		DateEquals: strings.TrimSpace(date),
		SearchText: strings.TrimSpace(search),
		SortBy:     CustomerSort(strings.TrimSpace(sortBy)),
	}
	if f.Status == "all" {
		f.Status = ""
	}
	if f.Status != "" && !f.Status.IsValid() {
		return CustomerFilters{}, fmt.Errorf("알 수 없는 상태입니다: %s", f.Status)
	}
	if f.DateEquals != "" {
		if _, err := time.Parse(DateLayout, f.DateEquals); err != nil {
			return CustomerFilters{}, fmt.Errorf("날짜 형식이 올바르지 않습니다: %s", f.DateEquals)
		}
	}
	if f.SortBy == "" {
		f.SortBy = SortLatest
	}
	if !f.SortBy.IsValid() {
		return CustomerFilters{}, fmt.Errorf("알 수 없는 정렬 기준입니다: %s", f.SortBy)
	}
	return f, nil
}

// DayRange 날짜 필터를 loc 기준 [시작, 다음날 시작) 구간으로 변환
func (f CustomerFilters) DayRange(loc *time.Location) (time.Time, time.Time, bool) {
	if f.DateEquals == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.ParseInLocation(DateLayout, f.DateEquals, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 0, 1), true
}

// StatusCount 상태별 고객 수
type StatusCount struct {
	Status   CustomerStatus `json:"status"`
	Position int            `json:"position"`
	Count    int            `json:"count"`
}
