package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionStatus 통화 연결 결과
type ConnectionStatus string

const (
	ConnectionMissed    ConnectionStatus = "부재중"
	ConnectionConnected ConnectionStatus = "연결"
	ConnectionHungUp    ConnectionStatus = "연결 후 즉시 끊음"
)

// ConnectionStatusList 선택 가능한 연결 결과
var ConnectionStatusList = []ConnectionStatus{ConnectionMissed, ConnectionConnected, ConnectionHungUp}

// IsValid 정의된 연결 결과인지 확인
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionMissed, ConnectionConnected, ConnectionHungUp:
		return true
	}
	return false
}

// CallContentSeed 연결 결과에 따라 통화내용에 미리 채울 문구. 연결된 경우 없음
func (s ConnectionStatus) CallContentSeed() string {
	switch s {
	case ConnectionMissed:
		return "부재중"
	case ConnectionHungUp:
		return "연결후즉시끊음"
	}
	return ""
}

// SellerReaction 셀러 반응
type SellerReaction string

const (
	ReactionPositive SellerReaction = "긍정"
	ReactionNegative SellerReaction = "부정"
)

// IsValid 정의된 반응인지 확인
func (r SellerReaction) IsValid() bool {
	return r == ReactionPositive || r == ReactionNegative
}

// Channel 메시지 채널
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelKakao Channel = "kakao"
	ChannelSMS   Channel = "sms"
)

// FollowUpAction 후속 조치
type FollowUpAction string

const (
	FollowUpNone  FollowUpAction = "조치안함"
	FollowUpEmail FollowUpAction = "이메일로_컨택_유도"
	FollowUpKakao FollowUpAction = "카톡으로_컨택_유도"
	FollowUpSMS   FollowUpAction = "문자로_컨택_유도"
)

// FollowUpActionList 선택 가능한 후속 조치
var FollowUpActionList = []FollowUpAction{FollowUpNone, FollowUpEmail, FollowUpKakao, FollowUpSMS}

// 예전 데이터의 단일 값 후속 조치
const (
	legacyKakaoAndSMS     = "카톡_및_문자로_컨택_유도"
	legacyEmailKakaoOrSMS = "이메일+카톡/문자로_컨택_유도"
)

var followUpLabels = map[FollowUpAction]string{
	FollowUpNone:  "조치안함",
	FollowUpEmail: "이메일로 컨택 유도",
	FollowUpKakao: "카톡으로 컨택 유도",
	FollowUpSMS:   "문자로 컨택 유도",
}

// IsValid 정의된 후속 조치인지 확인
func (a FollowUpAction) IsValid() bool {
	_, ok := followUpLabels[a]
	return ok
}

// Label 화면 표시용 문구
func (a FollowUpAction) Label() string {
	if label, ok := followUpLabels[a]; ok {
		return label
	}
	return string(a)
}

// Channel 메시지 채널. 조치안함은 채널 없음
func (a FollowUpAction) Channel() (Channel, bool) {
	switch a {
	case FollowUpEmail:
		return ChannelEmail, true
	case FollowUpKakao:
		return ChannelKakao, true
	case FollowUpSMS:
		return ChannelSMS, true
	}
	return "", false
}

// FollowUpActions 후속 조치 집합 (선택 순서 유지)
type FollowUpActions []FollowUpAction

// 후속 조치 검증 오류
var (
	ErrNoFollowUpAction      = errors.New("후속 조치를 하나 이상 선택해주세요")
	ErrExclusiveFollowUpNone = errors.New("조치안함은 다른 후속 조치와 함께 선택할 수 없습니다")
)

// Validate 어휘, 배타성, 최소 1개 선택 검증
func (as FollowUpActions) Validate() error {
	if len(as) == 0 {
		return ErrNoFollowUpAction
	}
	for _, a := range as {
		if !a.IsValid() {
			return fmt.Errorf("알 수 없는 후속 조치입니다: %s", a)
		}
	}
	if as.Contains(FollowUpNone) && len(as) > 1 {
		return ErrExclusiveFollowUpNone
	}
	return nil
}

// Contains 포함 여부
func (as FollowUpActions) Contains(a FollowUpAction) bool {
	for _, v := range as {
		if v == a {
			return true
		}
	}
	return false
}

// Labels 표시 문구 목록
func (as FollowUpActions) Labels() []string {
	labels := make([]string, 0, len(as))
	for _, a := range as {
		labels = append(labels, a.Label())
	}
	return labels
}

// PlanningText 후속 계획 문구 (표시 문구를 ", " 로 연결)
func (as FollowUpActions) PlanningText() string {
	return strings.Join(as.Labels(), ", ")
}

// Channels 선택된 조치가 가리키는 메시지 채널 (중복 제거)
func (as FollowUpActions) Channels() []Channel {
	var channels []Channel
	seen := map[Channel]bool{}
	for _, a := range as {
		if ch, ok := a.Channel(); ok && !seen[ch] {
			seen[ch] = true
			channels = append(channels, ch)
		}
	}
	return channels
}

// NormalizeFollowUpActions 예전 단일 값을 현재 어휘로 펼치고 중복 제거
func NormalizeFollowUpActions(values []string) FollowUpActions {
	out := FollowUpActions{}
	add := func(a FollowUpAction) {
		if !out.Contains(a) {
			out = append(out, a)
		}
	}
	for _, v := range values {
		switch v = strings.TrimSpace(v); v {
		case "":
		case legacyKakaoAndSMS:
			add(FollowUpKakao)
			add(FollowUpSMS)
		case legacyEmailKakaoOrSMS:
			add(FollowUpEmail)
			add(FollowUpKakao)
			add(FollowUpSMS)
		default:
			add(FollowUpAction(v))
		}
	}
	return out
}

// UnmarshalBSONValue 배열과 예전 단일 문자열 모두 읽는다
func (as *FollowUpActions) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*as = FollowUpActions{}
		return nil
	case bsontype.String:
		*as = NormalizeFollowUpActions([]string{raw.StringValue()})
		return nil
	case bsontype.Array:
		var values []string
		if err := raw.Unmarshal(&values); err != nil {
			return err
		}
		*as = NormalizeFollowUpActions(values)
		return nil
	}
	return fmt.Errorf("follow_up_action: 지원하지 않는 BSON 타입 %s", t)
}

// UnmarshalJSON 배열과 예전 단일 문자열 모두 읽는다
func (as *FollowUpActions) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*as = NormalizeFollowUpActions([]string{single})
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("follow_up_action: %w", err)
	}
	*as = NormalizeFollowUpActions(values)
	return nil
}

// CallLog 통화 기록
type CallLog struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	CustomerID       primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	ConnectionStatus ConnectionStatus   `bson:"connection_status" json:"connection_status"`
	FollowUpAction   FollowUpActions    `bson:"follow_up_action" json:"follow_up_action"`
	SellerReaction   SellerReaction     `bson:"seller_reaction" json:"seller_reaction"`
	CallContent      string             `bson:"call_content" json:"call_content"`
	FollowUpPlanning string             `bson:"follow_up_planning" json:"follow_up_planning"`
	SpecialNotes     string             `bson:"special_notes" json:"special_notes"`
	OwnerUserID      primitive.ObjectID `bson:"owner_user_id" json:"owner_user_id"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// CallLogInput 통화 기록 생성 값
type CallLogInput struct {
	CustomerID       primitive.ObjectID `json:"customer_id"`
	ConnectionStatus ConnectionStatus   `json:"connection_status"`
	FollowUpAction   FollowUpActions    `json:"follow_up_action"`
	SellerReaction   SellerReaction     `json:"seller_reaction"`
	CallContent      string             `json:"call_content"`
	FollowUpPlanning string             `json:"follow_up_planning"`
	SpecialNotes     string             `json:"special_notes"`
}

// CallLogPatch 통화 기록 수정 값. nil 필드는 변경하지 않음
type CallLogPatch struct {
	ConnectionStatus *ConnectionStatus `bson:"connection_status,omitempty" json:"connection_status,omitempty" validate:"omitempty,connection_status"`
	FollowUpAction   *FollowUpActions  `bson:"follow_up_action,omitempty" json:"follow_up_action,omitempty"`
	SellerReaction   *SellerReaction   `bson:"seller_reaction,omitempty" json:"seller_reaction,omitempty" validate:"omitempty,seller_reaction"`
	CallContent      *string           `bson:"call_content,omitempty" json:"call_content,omitempty"`
	FollowUpPlanning *string           `bson:"follow_up_planning,omitempty" json:"follow_up_planning,omitempty"`
	SpecialNotes     *string           `bson:"special_notes,omitempty" json:"special_notes,omitempty"`
}

// IsEmpty 변경할 필드가 없는지
func (p CallLogPatch) IsEmpty() bool {
	return len(p.ToSet()) == 0
}

// ToSet $set 문서로 변환
func (p CallLogPatch) ToSet() bson.M {
	set := bson.M{}
	if p.ConnectionStatus != nil {
		set["connection_status"] = *p.ConnectionStatus
	}
	if p.FollowUpAction != nil {
		set["follow_up_action"] = *p.FollowUpAction
	}
	if p.SellerReaction != nil {
		set["seller_reaction"] = *p.SellerReaction
	}
	if p.CallContent != nil {
		set["call_content"] = *p.CallContent
	}
	if p.FollowUpPlanning != nil {
		set["follow_up_planning"] = *p.FollowUpPlanning
	}
	if p.SpecialNotes != nil {
		set["special_notes"] = *p.SpecialNotes
	}
	return set
}

// CallLogWithCustomer 고객 정보가 결합된 통화 기록
type CallLogWithCustomer struct {
	CallLog
	Customer *Customer `json:"customer,omitempty"`
}

// CallWizardRequest 콜 위저드 입력. 단계 순서대로 재생된다
type CallWizardRequest struct {
	ConnectionStatus ConnectionStatus `json:"connection_status" validate:"required,connection_status"`
	FollowUpAction   FollowUpActions  `json:"follow_up_action" validate:"required,min=1,dive,follow_up_action"`
	SellerReaction   SellerReaction   `json:"seller_reaction" validate:"omitempty,seller_reaction"`
	CallContent      *string          `json:"call_content,omitempty"`
	FollowUpPlanning *string          `json:"follow_up_planning,omitempty"`
	SpecialNotes     string           `json:"special_notes"`
	NextStatus       CustomerStatus   `json:"next_status" validate:"omitempty,customer_status"`
}
