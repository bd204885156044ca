package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CustomerRepository 고객 저장소. 모든 조회/변경은 소유자 조건이 붙는다
type CustomerRepository struct {
	customers Table[models.Customer]
	callLogs  Table[models.CallLog]
	loc       *time.Location

	// Now 시각 (테스트에서 교체)
	Now func() time.Time
}

// NewCustomerRepository 고객 저장소 생성. loc 는 날짜 필터 기준 시간대
func NewCustomerRepository(store *Store, loc *time.Location) *CustomerRepository {
	if loc == nil {
		loc = time.Local
	}
	return &CustomerRepository{
		customers: store.Customers,
		callLogs:  store.CallLogs,
		loc:       loc,
		Now:       time.Now,
	}
}

func ownedBy(owner primitive.ObjectID) Cond {
	return Eq("owner_user_id", owner)
}

// List 필터/검색/정렬된 고객 목록
func (r *CustomerRepository) List(ctx context.Context, owner primitive.ObjectID, filters models.CustomerFilters) ([]models.Customer, error) {
	q := Where(ownedBy(owner))
	if filters.Status != "" {
		q = q.And(Eq("status", filters.Status))
	}
	if start, end, ok := filters.DayRange(r.loc); ok {
		q = q.And(Gte("created_at", start), Lt("created_at", end))
	}
	if filters.SearchText != "" {
		q = q.Or(ILike("name", filters.SearchText), ILike("company", filters.SearchText))
	}
	field, ascending := sortColumn(filters.SortBy)
	q = q.OrderBy(field, ascending)

	customers, err := r.customers.Select(ctx, q)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"owner": owner.Hex()}, "고객 목록 조회 실패")
		return nil, utils.NewPersistenceError("고객 목록 조회", err)
	}

	// 저장소 정렬은 바이트 순서라 한글 이름은 여기서 다시 정렬한다
	SortCustomers(customers, filters.SortBy)
	return customers, nil
}

func sortColumn(sortBy models.CustomerSort) (string, bool) {
	switch sortBy {
	case models.SortOldest:
		return "created_at", true
	case models.SortNameAsc:
		return "name", true
	case models.SortNameDesc:
		return "name", false
	case models.SortCompanyAsc:
		return "company", true
	case models.SortCompanyDesc:
		return "company", false
	}
	return "created_at", false
}

// SortCustomers 한국어 정렬 규칙으로 재정렬. 같은 값이면 최근 생성 순
func SortCustomers(customers []models.Customer, sortBy models.CustomerSort) {
	col := collate.New(language.Korean)
	newestFirst := func(a, b models.Customer) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}
	byText := func(get func(models.Customer) string, ascending bool) func(i, j int) bool {
		return func(i, j int) bool {
			cmp := col.CompareString(get(customers[i]), get(customers[j]))
			if cmp == 0 {
				return newestFirst(customers[i], customers[j])
			}
			if ascending {
				return cmp < 0
			}
			return cmp > 0
		}
	}
	name := func(c models.Customer) string { return c.Name }
	company := func(c models.Customer) string { return c.Company }

	var less func(i, j int) bool
	switch sortBy {
	case models.SortOldest:
		less = func(i, j int) bool { return customers[i].CreatedAt.Before(customers[j].CreatedAt) }
	case models.SortNameAsc:
		less = byText(name, true)
	case models.SortNameDesc:
		less = byText(name, false)
	case models.SortCompanyAsc:
		less = byText(company, true)
	case models.SortCompanyDesc:
		less = byText(company, false)
	default:
		less = func(i, j int) bool { return newestFirst(customers[i], customers[j]) }
	}
	sort.SliceStable(customers, less)
}

// Get 고객 단건 조회
func (r *CustomerRepository) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Customer, error) {
	customer, err := r.customers.Single(ctx, Where(Eq("_id", id), ownedBy(owner)))
	if errors.Is(err, ErrNoRows) {
		return nil, utils.NewNotFoundError("고객")
	}
	if err != nil {
		return nil, utils.NewPersistenceError("고객 조회", err)
	}
	return &customer, nil
}

// Create 고객 생성. 이름 필수, 상태 미지정 시 기본값
func (r *CustomerRepository) Create(ctx context.Context, owner primitive.ObjectID, input models.CustomerInput) (*models.Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, utils.NewValidationError("이름은 필수 입력 항목입니다.")
	}
	status := input.Status
	if status == "" {
		status = models.DefaultCustomerStatus
	}
	if !status.IsValid() {
		return nil, utils.NewValidationError("알 수 없는 상태입니다: " + string(status))
	}

	now := r.Now()
	customer := models.Customer{
		Name:           strings.TrimSpace(input.Name),
		Company:        strings.TrimSpace(input.Company),
		BusinessNumber: strings.TrimSpace(input.BusinessNumber),
		Website:        strings.TrimSpace(input.Website),
		Email:          strings.TrimSpace(input.Email),
		Phone:          strings.TrimSpace(input.Phone),
		Status:         status,
		OwnerUserID:    owner,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := r.customers.Insert(ctx, customer)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"owner": owner.Hex(), "name": customer.Name}, "고객 생성 실패")
		return nil, utils.NewPersistenceError("고객 생성", err)
	}
	customer.ID = id

	utils.LogInfo(map[string]interface{}{"customerId": id.Hex(), "status": status}, "고객 생성")
	return &customer, nil
}

// Update 고객 수정. updated_at 은 항상 갱신된다
func (r *CustomerRepository) Update(ctx context.Context, owner, id primitive.ObjectID, patch models.CustomerPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return utils.NewValidationError("이름은 필수 입력 항목입니다.")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return utils.NewValidationError("알 수 없는 상태입니다: " + string(*patch.Status))
	}

	set := patch.ToSet()
	return r.update(ctx, owner, id, set)
}

// UpdateStatus 상태만 변경
func (r *CustomerRepository) UpdateStatus(ctx context.Context, owner, id primitive.ObjectID, status models.CustomerStatus) error {
	if !status.IsValid() {
		return utils.NewValidationError("알 수 없는 상태입니다: " + string(status))
	}
	return r.update(ctx, owner, id, bson.M{"status": status})
}

func (r *CustomerRepository) update(ctx context.Context, owner, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = r.Now()

	matched, err := r.customers.Update(ctx, []Cond{Eq("_id", id), ownedBy(owner)}, set)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"customerId": id.Hex()}, "고객 수정 실패")
		return utils.NewPersistenceError("고객 수정", err)
	}
	if matched == 0 {
		return utils.NewNotFoundError("고객")
	}
	utils.LogDbOperation("update", CustomersCollection, id.Hex(), set)
	return nil
}

// Delete 통화 기록을 먼저 지운 뒤 고객 삭제. 통화 기록 삭제가 실패하면 고객은 남는다
func (r *CustomerRepository) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}

	removedLogs, err := r.callLogs.Delete(ctx, []Cond{Eq("customer_id", id), ownedBy(owner)})
	if err != nil {
		utils.LogError(err, map[string]interface{}{"customerId": id.Hex()}, "고객 통화 기록 삭제 실패, 고객 삭제 중단")
		return utils.NewPersistenceError("통화 기록 삭제", err)
	}

	deleted, err := r.customers.Delete(ctx, []Cond{Eq("_id", id), ownedBy(owner)})
	if err != nil {
		utils.LogError(err, map[string]interface{}{"customerId": id.Hex()}, "고객 삭제 실패")
		return utils.NewPersistenceError("고객 삭제", err)
	}
	if deleted == 0 {
		return utils.NewNotFoundError("고객")
	}

	utils.LogInfo(map[string]interface{}{"customerId": id.Hex(), "callLogs": removedLogs}, "고객 삭제")
	return nil
}

// BulkUpdateStatus 소유한 고객들의 상태를 한 번에 변경. 변경된 행 수 반환
func (r *CustomerRepository) BulkUpdateStatus(ctx context.Context, owner primitive.ObjectID, ids []primitive.ObjectID, status models.CustomerStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, utils.NewValidationError("변경할 고객을 선택해주세요")
	}
	if !status.IsValid() {
		return 0, utils.NewValidationError("알 수 없는 상태입니다: " + string(status))
	}

	matched, err := r.customers.Update(ctx,
		[]Cond{In("_id", ids), ownedBy(owner)},
		bson.M{"status": status, "updated_at": r.Now()},
	)
	if err != nil {
		utils.LogError(err, map[string]interface{}{"count": len(ids), "status": status}, "고객 일괄 상태 변경 실패")
		return 0, utils.NewPersistenceError("일괄 상태 변경", err)
	}

	utils.LogInfo(map[string]interface{}{"requested": len(ids), "matched": matched, "status": status}, "고객 일괄 상태 변경")
	return matched, nil
}

// CountByStatus 상태 탭별 고객 수 (파이프라인 순서)
func (r *CustomerRepository) CountByStatus(ctx context.Context, owner primitive.ObjectID) ([]models.StatusCount, error) {
	counts := make([]models.StatusCount, 0, len(models.StatusList))
	for i, status := range models.StatusList {
		n, err := r.customers.Count(ctx, []Cond{ownedBy(owner), Eq("status", status)})
		if err != nil {
			return nil, utils.NewPersistenceError("상태별 고객 수 조회", err)
		}
		counts = append(counts, models.StatusCount{Status: status, Position: i, Count: int(n)})
	}
	return counts, nil
}
