package service

import (
	"fmt"
	"strings"

	"github.com/BerniceZTT/outreach_crm/models"
)

// CallLogSummary 클립보드 복사용 통화 기록 요약
func CallLogSummary(log models.CallLog) string {
	notes := strings.TrimSpace(log.SpecialNotes)
	if notes == "" {
		notes = "없음"
	}
	return fmt.Sprintf("[콜로그]\n셀러반응: %s\n주요콜내용: %s\n후속행동: %s\n특이사항: %s",
		log.SellerReaction,
		log.CallContent,
		strings.Join(log.FollowUpAction.Labels(), ", "),
		notes,
	)
}

// PrepareCallLogEdit 후속 조치만 바뀌고 후속 계획이 없으면 계획 문구를 다시 만든다
func PrepareCallLogEdit(patch models.CallLogPatch) models.CallLogPatch {
	if patch.FollowUpAction != nil && patch.FollowUpPlanning == nil {
		planning := patch.FollowUpAction.PlanningText()
		patch.FollowUpPlanning = &planning
	}
	return patch
}
