package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var kst = time.FixedZone("KST", 9*60*60)

type fixture struct {
	store     *Store
	customers *CustomerRepository
	callLogs  *CallLogRepository
	owner     primitive.ObjectID
	clock     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	clock := time.Date(2024, 6, 3, 10, 0, 0, 0, kst)
	f := &fixture{
		store:     store,
		customers: NewCustomerRepository(store, kst),
		callLogs:  NewCallLogRepository(store),
		owner:     primitive.NewObjectID(),
		clock:     &clock,
	}
	now := func() time.Time { return *f.clock }
	f.customers.Now = now
	f.callLogs.Now = now
	return f
}

func (f *fixture) tick(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

// faultyTable 지정한 쓰기만 실패시키는 테이블
type faultyTable[T any] struct {
	Table[T]
	updateErr error
	deleteErr error
}

func (t faultyTable[T]) Update(ctx context.Context, where []Cond, set bson.M) (int64, error) {
	if t.updateErr != nil {
		return 0, t.updateErr
	}
	return t.Table.Update(ctx, where, set)
}

func (t faultyTable[T]) Delete(ctx context.Context, where []Cond) (int64, error) {
	if t.deleteErr != nil {
		return 0, t.deleteErr
	}
	return t.Table.Delete(ctx, where)
}

func (f *fixture) createCustomer(t *testing.T, owner primitive.ObjectID, input models.CustomerInput) *models.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), owner, input)
	require.NoError(t, err)
	f.tick(time.Minute)
	return c
}

func (f *fixture) createCallLog(t *testing.T, customerID primitive.ObjectID) *models.CallLog {
	t.Helper()
	log, err := f.callLogs.Create(context.Background(), f.owner, models.CallLogInput{
		CustomerID:       customerID,
		ConnectionStatus: models.ConnectionMissed,
		FollowUpAction:   models.FollowUpActions{models.FollowUpEmail},
		SellerReaction:   models.ReactionPositive,
		CallContent:      "부재중",
		FollowUpPlanning: "이메일로 컨택 유도",
	})
	require.NoError(t, err)
	f.tick(time.Minute)
	return log
}

func TestCreateCustomerDefaultsStatus(t *testing.T) {
	f := newFixture(t)

	c := f.createCustomer(t, f.owner, models.CustomerInput{Name: " 김민수 "})
	assert.Equal(t, "김민수", c.Name)
	assert.Equal(t, models.DefaultCustomerStatus, c.Status)
	assert.Equal(t, f.owner, c.OwnerUserID)
	assert.False(t, c.ID.IsZero())
}

func TestCreateCustomerRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.customers.Create(context.Background(), f.owner, models.CustomerInput{Company: "상점"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestDeleteCustomerCascadesCallLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.createCustomer(t, f.owner, models.CustomerInput{Name: "삭제대상"})
	other := f.createCustomer(t, f.owner, models.CustomerInput{Name: "유지"})
	f.createCallLog(t, target.ID)
	f.createCallLog(t, target.ID)
	f.createCallLog(t, other.ID)

	require.NoError(t, f.customers.Delete(ctx, f.owner, target.ID))

	remaining, err := f.store.CallLogs.Count(ctx, []Cond{Eq("customer_id", target.ID)})
	require.NoError(t, err)
	assert.Zero(t, remaining)

	kept, err := f.store.CallLogs.Count(ctx, []Cond{Eq("customer_id", other.ID)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, kept)

	_, err = f.customers.Get(ctx, f.owner, target.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestDeleteCustomerKeepsCustomerWhenCallLogDeleteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := f.createCustomer(t, f.owner, models.CustomerInput{Name: "삭제실패"})
	f.createCallLog(t, target.ID)
	f.customers.callLogs = faultyTable[models.CallLog]{
		Table:     f.store.CallLogs,
		deleteErr: errors.New("connection reset"),
	}

	err := f.customers.Delete(ctx, f.owner, target.ID)
	assert.ErrorIs(t, err, utils.ErrPersistence)

	got, err := f.customers.Get(ctx, f.owner, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "삭제실패", got.Name)

	logs, err := f.store.CallLogs.Count(ctx, []Cond{Eq("customer_id", target.ID)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, logs)
}

func TestDeleteCustomerOfAnotherOwner(t *testing.T) {
	f := newFixture(t)
	c := f.createCustomer(t, primitive.NewObjectID(), models.CustomerInput{Name: "남의 고객"})

	err := f.customers.Delete(context.Background(), f.owner, c.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestListByStatusIsScopedToOwner(t *testing.T) {
	f := newFixture(t)
	signed1 := f.createCustomer(t, f.owner, models.CustomerInput{Name: "가", Status: models.StatusSignedUp})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "나", Status: models.StatusReviewThenContact})
	signed2 := f.createCustomer(t, f.owner, models.CustomerInput{Name: "다", Status: models.StatusSignedUp})
	f.createCustomer(t, primitive.NewObjectID(), models.CustomerInput{Name: "라", Status: models.StatusSignedUp})

	filters, err := models.NewCustomerFilters("가입완료", "", "", "")
	require.NoError(t, err)
	got, err := f.customers.List(context.Background(), f.owner, filters)
	require.NoError(t, err)

	ids := []primitive.ObjectID{}
	for _, c := range got {
		assert.Equal(t, models.StatusSignedUp, c.Status)
		assert.Equal(t, f.owner, c.OwnerUserID)
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []primitive.ObjectID{signed1.ID, signed2.ID}, ids)
}

func TestListSearchMatchesNameOrCompany(t *testing.T) {
	f := newFixture(t)
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "김민수", Company: "Blue Shop"})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "이영희", Company: "민트상회"})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "박철수", Company: "RED"})

	filters, err := models.NewCustomerFilters("", "", "민", "name_asc")
	require.NoError(t, err)
	got, err := f.customers.List(context.Background(), f.owner, filters)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "김민수", got[0].Name)
	assert.Equal(t, "이영희", got[1].Name)

	filters, err = models.NewCustomerFilters("", "", "blue", "")
	require.NoError(t, err)
	got, err = f.customers.List(context.Background(), f.owner, filters)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "김민수", got[0].Name)
}

func TestListSortOrders(t *testing.T) {
	f := newFixture(t)
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "나영", Company: "다온"})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "가람", Company: "나래"})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "다솜", Company: "가온"})

	names := func(sortBy string) []string {
		filters, err := models.NewCustomerFilters("", "", "", sortBy)
		require.NoError(t, err)
		got, err := f.customers.List(context.Background(), f.owner, filters)
		require.NoError(t, err)
		out := make([]string, 0, len(got))
		for _, c := range got {
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"다솜", "가람", "나영"}, names("latest"))
	assert.Equal(t, []string{"나영", "가람", "다솜"}, names("oldest"))
	assert.Equal(t, []string{"가람", "나영", "다솜"}, names("name_asc"))
	assert.Equal(t, []string{"다솜", "나영", "가람"}, names("name_desc"))
	assert.Equal(t, []string{"다솜", "가람", "나영"}, names("company_asc"))
	assert.Equal(t, []string{"나영", "가람", "다솜"}, names("company_desc"))
}

func TestSortCustomersTieBreaksNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	customers := []models.Customer{
		{Name: "같음", Company: "old", CreatedAt: base},
		{Name: "같음", Company: "new", CreatedAt: base.Add(time.Hour)},
	}

	SortCustomers(customers, models.SortNameAsc)
	assert.Equal(t, "new", customers[0].Company)
}

func TestListDateFilterUsesLocalDay(t *testing.T) {
	f := newFixture(t)
	// 2024-06-03 23:30 KST 는 UTC 로는 같은 날 14:30
	*f.clock = time.Date(2024, 6, 3, 23, 30, 0, 0, kst)
	late := f.createCustomer(t, f.owner, models.CustomerInput{Name: "늦은 등록"})
	// 다음날 00:31 KST
	f.tick(time.Hour)
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "다음날"})

	filters, err := models.NewCustomerFilters("", "2024-06-03", "", "")
	require.NoError(t, err)
	got, err := f.customers.List(context.Background(), f.owner, filters)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, late.ID, got[0].ID)
}

func TestUpdateStatusRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createCustomer(t, f.owner, models.CustomerInput{Name: "상태변경"})
	f.tick(time.Hour)

	require.NoError(t, f.customers.UpdateStatus(ctx, f.owner, c.ID, models.StatusSignupPromised))

	got, err := f.customers.Get(ctx, f.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSignupPromised, got.Status)
	assert.True(t, got.UpdatedAt.Equal(*f.clock), "updated_at %v, want %v", got.UpdatedAt, *f.clock)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))
}

func TestUpdateRejectsUnknownStatusAndBlankName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.createCustomer(t, f.owner, models.CustomerInput{Name: "검증"})

	bad := models.CustomerStatus("보류")
	assert.ErrorIs(t, f.customers.Update(ctx, f.owner, c.ID, models.CustomerPatch{Status: &bad}), utils.ErrValidation)

	blank := "  "
	assert.ErrorIs(t, f.customers.Update(ctx, f.owner, c.ID, models.CustomerPatch{Name: &blank}), utils.ErrValidation)

	assert.ErrorIs(t, f.customers.UpdateStatus(ctx, f.owner, primitive.NewObjectID(), models.StatusSignedUp), utils.ErrNotFound)
}

func TestBulkUpdateStatusOnlyTouchesOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.createCustomer(t, f.owner, models.CustomerInput{Name: "가"})
	b := f.createCustomer(t, f.owner, models.CustomerInput{Name: "나"})
	foreign := f.createCustomer(t, primitive.NewObjectID(), models.CustomerInput{Name: "다"})

	n, err := f.customers.BulkUpdateStatus(ctx, f.owner, []primitive.ObjectID{a.ID, b.ID, foreign.ID}, models.StatusApplicationReview)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := f.store.Customers.Single(ctx, Where(Eq("_id", foreign.ID)))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCustomerStatus, got.Status)

	_, err = f.customers.BulkUpdateStatus(ctx, f.owner, nil, models.StatusSignedUp)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestCountByStatusFollowsPipelineOrder(t *testing.T) {
	f := newFixture(t)
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "가", Status: models.StatusSignedUp})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "나", Status: models.StatusSignedUp})
	f.createCustomer(t, f.owner, models.CustomerInput{Name: "다"})

	counts, err := f.customers.CountByStatus(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, counts, len(models.StatusList))
	for i, sc := range counts {
		assert.Equal(t, models.StatusList[i], sc.Status)
		assert.Equal(t, i, sc.Position)
	}
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 2, counts[models.StatusSignedUp.Position()].Count)
}
