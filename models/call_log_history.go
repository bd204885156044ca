package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CallLogHistoryEntry 통화 기록 수정 이력. 추가만 하고 수정/삭제하지 않는다
type CallLogHistoryEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	CallLogID    primitive.ObjectID `bson:"call_log_id" json:"call_log_id"`
	OriginalData CallLog            `bson:"original_data" json:"original_data"`
	ModifiedData CallLogPatch       `bson:"modified_data" json:"modified_data"`
	ModifiedBy   string             `bson:"modified_by" json:"modified_by"`
	OwnerUserID  primitive.ObjectID `bson:"owner_user_id" json:"owner_user_id"`
	ModifiedAt   time.Time          `bson:"modified_at" json:"modified_at"`
}
