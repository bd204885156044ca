package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/repository"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testSender = models.SenderIdentity{Name: "김엠디", Email: "md.kim@example.com", Phone: "010-1234-5678"}

type wizardFixture struct {
	customers *repository.CustomerRepository
	callLogs  *repository.CallLogRepository
	owner     primitive.ObjectID
	customer  *models.Customer
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	customers := repository.NewCustomerRepository(store, time.UTC)
	callLogs := repository.NewCallLogRepository(store)

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	customers.Now = now
	callLogs.Now = now

	owner := primitive.NewObjectID()
	customer, err := customers.Create(context.Background(), owner, models.CustomerInput{
		Name:    "김민수",
		Company: "민수상회",
		Email:   "minsu@example.com",
	})
	require.NoError(t, err)

	return &wizardFixture{customers: customers, callLogs: callLogs, owner: owner, customer: customer}
}

func (f *wizardFixture) wizard() *Wizard {
	return NewWizard(*f.customer, testSender, NewTemplateGenerator(models.SenderIdentity{}))
}

// toCallLog 연결 결과와 후속 조치를 고르고 calllog 단계까지 진행
func toCallLog(t *testing.T, w *Wizard, status models.ConnectionStatus, actions ...models.FollowUpAction) {
	t.Helper()
	require.NoError(t, w.SelectConnection(status))
	require.NoError(t, w.Next())
	for _, a := range actions {
		require.NoError(t, w.ToggleFollowUp(a))
	}
	require.NoError(t, w.Next())
	if w.Step() == StepTemplate {
		require.NoError(t, w.Next())
	}
	require.Equal(t, StepCallLog, w.Step())
}

type failingStatusWriter struct{}

func (failingStatusWriter) UpdateStatus(ctx context.Context, owner, id primitive.ObjectID, status models.CustomerStatus) error {
	return utils.NewPersistenceError("고객 상태 변경", errors.New("connection reset"))
}

type undiscardableLogs struct {
	*repository.CallLogRepository
}

func (undiscardableLogs) Discard(ctx context.Context, owner, id primitive.ObjectID) error {
	return utils.NewPersistenceError("통화 기록 취소", errors.New("timeout"))
}

// blockingStatusWriter 첫 호출을 release 가 닫힐 때까지 붙잡는다
type blockingStatusWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	next    CustomerStatusWriter
}

func (b *blockingStatusWriter) UpdateStatus(ctx context.Context, owner, id primitive.ObjectID, status models.CustomerStatus) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.next.UpdateStatus(ctx, owner, id, status)
}

func TestWizardSubmitMissedCallWithEmailFollowUp(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	before := f.customer.UpdatedAt
	w := f.wizard()

	require.NoError(t, w.SelectConnection(models.ConnectionMissed))
	require.NoError(t, w.Next())
	assert.Equal(t, "부재중", w.Form().CallContent)

	require.NoError(t, w.ToggleFollowUp(models.FollowUpEmail))
	require.NoError(t, w.Next())
	require.Equal(t, StepTemplate, w.Step())

	templates := w.Templates()
	require.Len(t, templates, 1)
	assert.Equal(t, models.ChannelEmail, templates[0].Channel)
	assert.Contains(t, templates[0].Text(), "민수상회")
	assert.Contains(t, templates[0].Text(), testSender.Name)

	require.NoError(t, w.Next())
	require.NoError(t, w.SetSellerReaction(models.ReactionPositive))
	require.NoError(t, w.SetNextStatus(models.StatusSignupPromised))

	created, err := w.Submit(ctx, f.owner, f.callLogs, f.customers)
	require.NoError(t, err)
	assert.Equal(t, StepSubmitted, w.Step())

	assert.Equal(t, "부재중", created.CallContent)
	assert.Equal(t, "이메일로 컨택 유도", created.FollowUpPlanning)
	assert.Equal(t, models.FollowUpActions{models.FollowUpEmail}, created.FollowUpAction)

	logs, err := f.callLogs.List(ctx, f.owner, &f.customer.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, created.ID, logs[0].ID)

	customer, err := f.customers.Get(ctx, f.owner, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSignupPromised, customer.Status)
	assert.True(t, customer.UpdatedAt.After(before))
}

func TestWizardFollowUpNoneIsExclusive(t *testing.T) {
	w := newWizardFixture(t).wizard()
	require.NoError(t, w.SelectConnection(models.ConnectionConnected))
	require.NoError(t, w.Next())

	require.NoError(t, w.ToggleFollowUp(models.FollowUpEmail))
	require.NoError(t, w.ToggleFollowUp(models.FollowUpKakao))
	require.NoError(t, w.ToggleFollowUp(models.FollowUpNone))
	assert.Equal(t, models.FollowUpActions{models.FollowUpNone}, w.Form().FollowUpAction)

	require.NoError(t, w.ToggleFollowUp(models.FollowUpSMS))
	assert.Equal(t, models.FollowUpActions{models.FollowUpSMS}, w.Form().FollowUpAction)

	// 다시 누르면 해제
	require.NoError(t, w.ToggleFollowUp(models.FollowUpSMS))
	assert.Empty(t, w.Form().FollowUpAction)
	assert.Error(t, w.Next())
}

func TestWizardPlanningFollowsSelection(t *testing.T) {
	w := newWizardFixture(t).wizard()
	require.NoError(t, w.SelectConnection(models.ConnectionConnected))
	require.NoError(t, w.Next())

	steps := []struct {
		toggle   models.FollowUpAction
		planning string
	}{
		{models.FollowUpKakao, "카톡으로 컨택 유도"},
		{models.FollowUpEmail, "카톡으로 컨택 유도, 이메일로 컨택 유도"},
		{models.FollowUpSMS, "카톡으로 컨택 유도, 이메일로 컨택 유도, 문자로 컨택 유도"},
		{models.FollowUpKakao, "이메일로 컨택 유도, 문자로 컨택 유도"},
		{models.FollowUpNone, "조치안함"},
	}
	for _, s := range steps {
		require.NoError(t, w.ToggleFollowUp(s.toggle))
		form := w.Form()
		assert.Equal(t, s.planning, form.FollowUpPlanning)
		assert.Equal(t, form.FollowUpAction.PlanningText(), form.FollowUpPlanning)
	}
}

func TestWizardSkipsTemplateStepWithoutChannels(t *testing.T) {
	w := newWizardFixture(t).wizard()
	require.NoError(t, w.SelectConnection(models.ConnectionConnected))
	require.NoError(t, w.Next())
	assert.Empty(t, w.Form().CallContent, "connected calls start with empty content")

	require.NoError(t, w.ToggleFollowUp(models.FollowUpNone))
	require.NoError(t, w.Next())
	assert.Equal(t, StepCallLog, w.Step())

	state := w.State()
	assert.Equal(t, []WizardStep{StepConnection, StepFollowUp, StepCallLog}, state.Steps)
	assert.Empty(t, state.Templates)
}

func TestWizardStateOffersChoices(t *testing.T) {
	state := newWizardFixture(t).wizard().State()

	assert.Equal(t, models.ConnectionStatusList, state.ConnectionChoices)
	require.Len(t, state.FollowUpChoices, len(models.FollowUpActionList))
	assert.Equal(t, FollowUpChoice{Value: models.FollowUpNone, Label: "조치안함"}, state.FollowUpChoices[0])
	assert.Equal(t, FollowUpChoice{Value: models.FollowUpKakao, Label: "카톡으로 컨택 유도"}, state.FollowUpChoices[2])
}

func TestWizardBackKeepsInputAndReseedsContent(t *testing.T) {
	w := newWizardFixture(t).wizard()
	require.NoError(t, w.SelectConnection(models.ConnectionMissed))
	require.NoError(t, w.Next())
	require.NoError(t, w.ToggleFollowUp(models.FollowUpKakao))

	require.NoError(t, w.Back())
	assert.Equal(t, StepConnection, w.Step())
	assert.Equal(t, models.FollowUpActions{models.FollowUpKakao}, w.Form().FollowUpAction)

	// 자동 입력된 내용은 연결 결과를 바꾸면 다시 채워진다
	require.NoError(t, w.SelectConnection(models.ConnectionHungUp))
	require.NoError(t, w.Next())
	assert.Equal(t, "연결후즉시끊음", w.Form().CallContent)

	// 직접 고친 내용은 유지된다
	w.SetCallContent("대표님 출장 중, 다음 주 재연락")
	require.NoError(t, w.Back())
	require.NoError(t, w.SelectConnection(models.ConnectionMissed))
	require.NoError(t, w.Next())
	assert.Equal(t, "대표님 출장 중, 다음 주 재연락", w.Form().CallContent)
}

func TestWizardRejectsOutOfOrderActions(t *testing.T) {
	w := newWizardFixture(t).wizard()

	assert.ErrorIs(t, w.ToggleFollowUp(models.FollowUpEmail), utils.ErrValidation)
	assert.ErrorIs(t, w.Next(), utils.ErrValidation)
	assert.ErrorIs(t, w.Back(), utils.ErrValidation)
	assert.ErrorIs(t, w.SelectConnection("통화중"), utils.ErrValidation)
}

func TestWizardSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	w := f.wizard()
	toCallLog(t, w, models.ConnectionConnected, models.FollowUpNone)

	_, err := w.Submit(ctx, f.owner, f.callLogs, f.customers)
	assert.ErrorIs(t, err, utils.ErrValidation, "seller reaction missing")

	require.NoError(t, w.SetSellerReaction(models.ReactionNegative))
	require.NoError(t, w.SetNextStatus(models.StatusReviewThenContact))
	_, err = w.Submit(ctx, f.owner, f.callLogs, f.customers)
	assert.ErrorIs(t, err, utils.ErrValidation, "call content missing")

	w.SetCallContent("관심 없음")
	w.SetFollowUpPlanning("  ")
	_, err = w.Submit(ctx, f.owner, f.callLogs, f.customers)
	assert.ErrorIs(t, err, utils.ErrValidation, "planning missing")

	assert.Equal(t, StepCallLog, w.Step())
	logs, err := f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWizardCompensatesWhenStatusUpdateFails(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	w := f.wizard()
	toCallLog(t, w, models.ConnectionMissed, models.FollowUpSMS)
	require.NoError(t, w.SetSellerReaction(models.ReactionPositive))
	require.NoError(t, w.SetNextStatus(models.StatusSignedUp))

	_, err := w.Submit(ctx, f.owner, f.callLogs, failingStatusWriter{})
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.True(t, commitErr.Compensated)
	assert.ErrorIs(t, err, utils.ErrPersistence)

	logs, err := f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, logs)

	// 입력 값은 유지되고 재시도할 수 있다
	assert.Equal(t, StepCallLog, w.Step())
	assert.Equal(t, "부재중", w.Form().CallContent)

	_, err = w.Submit(ctx, f.owner, f.callLogs, f.customers)
	require.NoError(t, err)
	logs, err = f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestWizardReportsUncompensatedCallLog(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	w := f.wizard()
	toCallLog(t, w, models.ConnectionMissed, models.FollowUpNone)
	require.NoError(t, w.SetSellerReaction(models.ReactionNegative))
	require.NoError(t, w.SetNextStatus(models.StatusReviewThenContact))

	_, err := w.Submit(ctx, f.owner, undiscardableLogs{f.callLogs}, failingStatusWriter{})
	var commitErr *CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.False(t, commitErr.Compensated)
	assert.False(t, commitErr.CallLogID.IsZero())
	assert.Error(t, commitErr.DiscardErr)

	logs, err := f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, commitErr.CallLogID, logs[0].ID)
}

func TestWizardRejectsConcurrentSubmit(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	w := f.wizard()
	toCallLog(t, w, models.ConnectionConnected, models.FollowUpNone)
	w.SetCallContent("입점 긍정 검토")
	require.NoError(t, w.SetSellerReaction(models.ReactionPositive))
	require.NoError(t, w.SetNextStatus(models.StatusSignupPromised))

	blocker := &blockingStatusWriter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		next:    f.customers,
	}

	firstErr := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx, f.owner, f.callLogs, blocker)
		firstErr <- err
	}()

	<-blocker.entered
	_, err := w.Submit(ctx, f.owner, f.callLogs, f.customers)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(blocker.release)
	require.NoError(t, <-firstErr)

	logs, err := f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestWizardReplay(t *testing.T) {
	ctx := context.Background()
	f := newWizardFixture(t)
	w := f.wizard()

	notes := "담당자 직통번호 확보"
	require.NoError(t, w.Replay(models.CallWizardRequest{
		ConnectionStatus: models.ConnectionHungUp,
		FollowUpAction:   models.FollowUpActions{models.FollowUpKakao, models.FollowUpSMS},
		SellerReaction:   models.ReactionNegative,
		SpecialNotes:     notes,
		NextStatus:       models.StatusReviewThenContact,
	}))
	assert.Equal(t, StepCallLog, w.Step())

	created, err := w.Submit(ctx, f.owner, f.callLogs, f.customers)
	require.NoError(t, err)
	assert.Equal(t, "연결후즉시끊음", created.CallContent)
	assert.Equal(t, "카톡으로 컨택 유도, 문자로 컨택 유도", created.FollowUpPlanning)
	assert.Equal(t, notes, created.SpecialNotes)
}

func TestWizardReplayStopsAtFirstInvalidStep(t *testing.T) {
	w := newWizardFixture(t).wizard()
	err := w.Replay(models.CallWizardRequest{ConnectionStatus: models.ConnectionConnected})
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, StepFollowUp, w.Step())
}
