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

func TestCallLogUpdateWritesOneHistoryEntryPerCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "이력"})
	log := f.createCallLog(t, customer.ID)

	before, err := f.callLogs.Get(ctx, f.owner, log.ID)
	require.NoError(t, err)

	content := "연결 후 상세 안내"
	actions := models.FollowUpActions{models.FollowUpKakao, models.FollowUpSMS}
	patch := models.CallLogPatch{CallContent: &content, FollowUpAction: &actions}

	updated, err := f.callLogs.Update(ctx, f.owner, "md.kim", log.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, content, updated.CallContent)
	assert.Equal(t, actions, updated.FollowUpAction)

	entries, err := f.callLogs.History(ctx, f.owner, log.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *before, entries[0].OriginalData)
	assert.Equal(t, patch, entries[0].ModifiedData)
	assert.Equal(t, "md.kim", entries[0].ModifiedBy)

	// 두 번째 수정은 첫 수정 결과를 원본으로 남긴다
	f.tick(time.Minute)
	notes := "재통화 예정"
	second := models.CallLogPatch{SpecialNotes: &notes}
	_, err = f.callLogs.Update(ctx, f.owner, "md.kim", log.ID, second)
	require.NoError(t, err)

	entries, err = f.callLogs.History(ctx, f.owner, log.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].ModifiedData, "newest first")
	assert.Equal(t, content, entries[0].OriginalData.CallContent)
}

func TestCallLogUpdateKeepsHistoryWhenPatchFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "수정실패"})
	log := f.createCallLog(t, customer.ID)

	before, err := f.callLogs.Get(ctx, f.owner, log.ID)
	require.NoError(t, err)

	f.callLogs.callLogs = faultyTable[models.CallLog]{
		Table:     f.store.CallLogs,
		updateErr: errors.New("write conflict"),
	}

	content := "수정 시도"
	_, err = f.callLogs.Update(ctx, f.owner, "md.kim", log.ID, models.CallLogPatch{CallContent: &content})
	assert.ErrorIs(t, err, utils.ErrPersistence)

	// 이력은 남고 통화 기록은 그대로
	entries, err := f.callLogs.History(ctx, f.owner, log.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *before, entries[0].OriginalData)

	after, err := f.callLogs.Get(ctx, f.owner, log.ID)
	require.NoError(t, err)
	assert.Equal(t, *before, *after)
}

func TestCallLogUpdateRecordsClientPatchBeforePreparation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "계획보정"})
	log := f.createCallLog(t, customer.ID)

	derived := "카카오톡으로 컨택 유도"
	f.callLogs.PrepareEdit = func(p models.CallLogPatch) models.CallLogPatch {
		if p.FollowUpAction != nil && p.FollowUpPlanning == nil {
			p.FollowUpPlanning = &derived
		}
		return p
	}

	actions := models.FollowUpActions{models.FollowUpKakao}
	patch := models.CallLogPatch{FollowUpAction: &actions}
	updated, err := f.callLogs.Update(ctx, f.owner, "md.kim", log.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, derived, updated.FollowUpPlanning)

	entries, err := f.callLogs.History(ctx, f.owner, log.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, patch, entries[0].ModifiedData)
	assert.Nil(t, entries[0].ModifiedData.FollowUpPlanning)
}

func TestCallLogUpdateRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "검증"})
	log := f.createCallLog(t, customer.ID)

	mixed := models.FollowUpActions{models.FollowUpNone, models.FollowUpEmail}
	_, err := f.callLogs.Update(ctx, f.owner, "md", log.ID, models.CallLogPatch{FollowUpAction: &mixed})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.callLogs.Update(ctx, f.owner, "md", log.ID, models.CallLogPatch{})
	assert.ErrorIs(t, err, utils.ErrValidation)

	n, err := f.store.CallLogHistory.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected patches leave no history")
}

func TestCallLogCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "검증"})

	valid := models.CallLogInput{
		CustomerID:       customer.ID,
		ConnectionStatus: models.ConnectionConnected,
		FollowUpAction:   models.FollowUpActions{models.FollowUpNone},
		SellerReaction:   models.ReactionNegative,
		CallContent:      "관심 없음",
		FollowUpPlanning: "조치안함",
	}

	cases := map[string]func(in *models.CallLogInput){
		"empty actions":      func(in *models.CallLogInput) { in.FollowUpAction = nil },
		"none with others":   func(in *models.CallLogInput) { in.FollowUpAction = models.FollowUpActions{models.FollowUpNone, models.FollowUpSMS} },
		"unknown connection": func(in *models.CallLogInput) { in.ConnectionStatus = "통화중" },
		"unknown reaction":   func(in *models.CallLogInput) { in.SellerReaction = "보통" },
		"blank content":      func(in *models.CallLogInput) { in.CallContent = " " },
		"blank planning":     func(in *models.CallLogInput) { in.FollowUpPlanning = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := f.callLogs.Create(ctx, f.owner, in)
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}

	other := valid
	other.CustomerID = primitive.NewObjectID()
	_, err := f.callLogs.Create(ctx, f.owner, other)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	created, err := f.callLogs.Create(ctx, f.owner, valid)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, created.CustomerID)
}

func TestCallLogListJoinsCustomerNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.createCustomer(t, f.owner, models.CustomerInput{Name: "가"})
	b := f.createCustomer(t, f.owner, models.CustomerInput{Name: "나"})
	first := f.createCallLog(t, a.ID)
	second := f.createCallLog(t, b.ID)

	all, err := f.callLogs.List(ctx, f.owner, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	require.NotNil(t, all[0].Customer)
	assert.Equal(t, "나", all[0].Customer.Name)

	onlyA, err := f.callLogs.List(ctx, f.owner, &a.ID)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, first.ID, onlyA[0].ID)

	others, err := f.callLogs.List(ctx, primitive.NewObjectID(), nil)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestCallLogDiscard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "취소"})
	log := f.createCallLog(t, customer.ID)

	require.NoError(t, f.callLogs.Discard(ctx, f.owner, log.ID))
	_, err := f.callLogs.Get(ctx, f.owner, log.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.ErrorIs(t, f.callLogs.Discard(ctx, f.owner, log.ID), utils.ErrNotFound)
}

func TestCallLogReadsLegacySingleStringAction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.createCustomer(t, f.owner, models.CustomerInput{Name: "레거시"})
	log := f.createCallLog(t, customer.ID)

	_, err := f.store.CallLogs.Update(ctx, []Cond{Eq("_id", log.ID)}, bson.M{"follow_up_action": "카톡_및_문자로_컨택_유도"})
	require.NoError(t, err)

	got, err := f.callLogs.Get(ctx, f.owner, log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowUpActions{models.FollowUpKakao, models.FollowUpSMS}, got.FollowUpAction)
}
