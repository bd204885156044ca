package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CallLogRepository 통화 기록 저장소
type CallLogRepository struct {
	callLogs  Table[models.CallLog]
	history   Table[models.CallLogHistoryEntry]
	customers Table[models.Customer]

	// Now 시각 (테스트에서 교체)
	Now func() time.Time
	// PrepareEdit 적용 직전 변경분 보정. 이력에는 보정 전 변경분이 남는다
	PrepareEdit func(models.CallLogPatch) models.CallLogPatch
}

// NewCallLogRepository 통화 기록 저장소 생성
func NewCallLogRepository(store *Store) *CallLogRepository {
	return &CallLogRepository{
		callLogs:  store.CallLogs,
		history:   store.CallLogHistory,
		customers: store.Customers,
		Now:       time.Now,
	}
}

// List 통화 기록 목록 (고객 정보 결합, 최신순). customerID 가 nil 이면 전체
func (r *CallLogRepository) List(ctx context.Context, owner primitive.ObjectID, customerID *primitive.ObjectID) ([]models.CallLogWithCustomer, error) {
	q := Where(ownedBy(owner)).OrderBy("created_at", false)
	if customerID != nil {
		q = q.And(Eq("customer_id", *customerID))
	}

	logs, err := r.callLogs.Select(ctx, q)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"owner": owner.Hex()}, "통화 기록 조회 실패")
		return nil, utils.NewPersistenceError("통화 기록 조회", err)
	}

	// 고객 결합
	customerIDs := make([]primitive.ObjectID, 0, len(logs))
	seen := map[primitive.ObjectID]bool{}
	for _, l := range logs {
		if !seen[l.CustomerID] {
			seen[l.CustomerID] = true
			customerIDs = append(customerIDs, l.CustomerID)
		}
	}
	byID := map[primitive.ObjectID]models.Customer{}
	if len(customerIDs) > 0 {
		customers, err := r.customers.Select(ctx, Where(In("_id", customerIDs), ownedBy(owner)))
		if err != nil {
			return nil, utils.NewPersistenceError("통화 기록 고객 조회", err)
		}
		for _, c := range customers {
			byID[c.ID] = c
		}
	}

	out := make([]models.CallLogWithCustomer, 0, len(logs))
	for _, l := range logs {
		item := models.CallLogWithCustomer{CallLog: l}
		if c, ok := byID[l.CustomerID]; ok {
			c := c
			item.Customer = &c
		}
		out = append(out, item)
	}
	return out, nil
}

// Get 통화 기록 단건 조회
func (r *CallLogRepository) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.CallLog, error) {
	log, err := r.callLogs.Single(ctx, Where(Eq("_id", id), ownedBy(owner)))
	if errors.Is(err, ErrNoRows) {
		return nil, utils.NewNotFoundError("통화 기록")
	}
	if err != nil {
		return nil, utils.NewPersistenceError("통화 기록 조회", err)
	}
	return &log, nil
}

func validateCallLogInput(input models.CallLogInput) error {
	if input.CustomerID.IsZero() {
		return utils.NewValidationError("고객을 선택해주세요")
	}
	if !input.ConnectionStatus.IsValid() {
		return utils.NewValidationError("연결 상태를 선택해주세요")
	}
	if err := input.FollowUpAction.Validate(); err != nil {
		return utils.NewValidationError(err.Error())
	}
	if !input.SellerReaction.IsValid() {
		return utils.NewValidationError("셀러 반응을 선택해주세요")
	}
	if strings.TrimSpace(input.CallContent) == "" {
		return utils.NewValidationError("주요 통화 내용은 필수 입력 항목입니다.")
	}
	if strings.TrimSpace(input.FollowUpPlanning) == "" {
		return utils.NewValidationError("후속 계획은 필수 입력 항목입니다.")
	}
	return nil
}

// Create 통화 기록 생성. 후속 조치 어휘를 검증한다
func (r *CallLogRepository) Create(ctx context.Context, owner primitive.ObjectID, input models.CallLogInput) (*models.CallLog, error) {
	if err := validateCallLogInput(input); err != nil {
		return nil, err
	}

	// 소유한 고객인지 확인
	if _, err := r.customers.Single(ctx, Where(Eq("_id", input.CustomerID), ownedBy(owner))); err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, utils.NewNotFoundError("고객")
		}
		return nil, utils.NewPersistenceError("고객 조회", err)
	}

	now := r.Now()
	log := models.CallLog{
		CustomerID:       input.CustomerID,
		ConnectionStatus: input.ConnectionStatus,
		FollowUpAction:   input.FollowUpAction,
		SellerReaction:   input.SellerReaction,
		CallContent:      input.CallContent,
		FollowUpPlanning: input.FollowUpPlanning,
		SpecialNotes:     input.SpecialNotes,
		OwnerUserID:      owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	id, err := r.callLogs.Insert(ctx, log)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"customerId": input.CustomerID.Hex()}, "통화 기록 생성 실패")
		return nil, utils.NewPersistenceError("통화 기록 생성", err)
	}
	log.ID = id

	utils.LogInfo(map[string]interface{}{
		"callLogId":  id.Hex(),
		"customerId": input.CustomerID.Hex(),
		"connection": input.ConnectionStatus,
	}, "통화 기록 생성")
	return &log, nil
}

func validateCallLogPatch(patch models.CallLogPatch) error {
	if patch.IsEmpty() {
		return utils.NewValidationError("변경할 내용이 없습니다")
	}
	if patch.ConnectionStatus != nil && !patch.ConnectionStatus.IsValid() {
		return utils.NewValidationError("알 수 없는 연결 상태입니다: " + string(*patch.ConnectionStatus))
	}
	if patch.FollowUpAction != nil {
		if err := patch.FollowUpAction.Validate(); err != nil {
			return utils.NewValidationError(err.Error())
		}
	}
	if patch.SellerReaction != nil && !patch.SellerReaction.IsValid() {
		return utils.NewValidationError("알 수 없는 셀러 반응입니다: " + string(*patch.SellerReaction))
	}
	if patch.CallContent != nil && strings.TrimSpace(*patch.CallContent) == "" {
		return utils.NewValidationError("주요 통화 내용은 필수 입력 항목입니다.")
	}
	if patch.FollowUpPlanning != nil && strings.TrimSpace(*patch.FollowUpPlanning) == "" {
		return utils.NewValidationError("후속 계획은 필수 입력 항목입니다.")
	}
	return nil
}

// Update 수정 전 상태를 이력으로 남긴 뒤 변경 적용.
// 이력 저장과 변경은 원자적이지 않다. 변경이 실패하면 이력만 남는다
func (r *CallLogRepository) Update(ctx context.Context, owner primitive.ObjectID, username string, id primitive.ObjectID, patch models.CallLogPatch) (*models.CallLog, error) {
	if err := validateCallLogPatch(patch); err != nil {
		return nil, err
	}

	// 1. 현재 행 조회
	current, err := r.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	// 2. 이력 저장
	now := r.Now()
	entry := models.CallLogHistoryEntry{
		CallLogID:    id,
		OriginalData: *current,
		ModifiedData: patch,
		ModifiedBy:   username,
		OwnerUserID:  owner,
		ModifiedAt:   now,
	}
	if _, err := r.history.Insert(ctx, entry); err != nil {
		utils.LogError(err, map[string]interface{}{"callLogId": id.Hex()}, "통화 기록 이력 저장 실패")
		return nil, utils.NewPersistenceError("통화 기록 이력 저장", err)
	}

	// 3. 변경 적용
	applied := patch
	if r.PrepareEdit != nil {
		applied = r.PrepareEdit(patch)
	}
	set := applied.ToSet()
	set["updated_at"] = now
	matched, err := r.callLogs.Update(ctx, []Cond{Eq("_id", id), ownedBy(owner)}, set)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"callLogId": id.Hex()}, "통화 기록 수정 실패 (이력은 저장됨)")
		return nil, utils.NewPersistenceError("통화 기록 수정", err)
	}
	if matched == 0 {
		return nil, utils.NewNotFoundError("통화 기록")
	}

	utils.LogInfo(map[string]interface{}{"callLogId": id.Hex(), "modifiedBy": username}, "통화 기록 수정")
	return r.Get(ctx, owner, id)
}

// History 통화 기록 수정 이력 (최신순)
func (r *CallLogRepository) History(ctx context.Context, owner, callLogID primitive.ObjectID) ([]models.CallLogHistoryEntry, error) {
	if _, err := r.Get(ctx, owner, callLogID); err != nil {
		return nil, err
	}

	entries, err := r.history.Select(ctx,
		Where(Eq("call_log_id", callLogID), ownedBy(owner)).OrderBy("modified_at", false),
	)
	if err != nil {
		return nil, utils.NewPersistenceError("통화 기록 이력 조회", err)
	}
	return entries, nil
}

// Discard 방금 생성한 통화 기록 제거 (위저드 보상 처리 전용)
func (r *CallLogRepository) Discard(ctx context.Context, owner, id primitive.ObjectID) error {
	deleted, err := r.callLogs.Delete(ctx, []Cond{Eq("_id", id), ownedBy(owner)})
	if err != nil {
		return utils.NewPersistenceError("통화 기록 취소", err)
	}
	if deleted == 0 {
		return utils.NewNotFoundError("통화 기록")
	}
	utils.LogInfo(map[string]interface{}{"callLogId": id.Hex()}, "통화 기록 취소 (보상 처리)")
	return nil
}
