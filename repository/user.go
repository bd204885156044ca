package repository

import (
	"context"
	"errors"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository 사용자 조회
type UserRepository struct {
	users Table[models.User]
}

// NewUserRepository 사용자 저장소 생성
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{users: store.Users}
}

// FindByUsername 사용자명으로 조회 (대소문자 구분). 없으면 nil
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := r.users.Single(ctx, Where(Eq("username", username)))
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewPersistenceError("사용자 조회", err)
	}
	return &user, nil
}

// FindByID ID로 조회. 없으면 nil
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := r.users.Single(ctx, Where(Eq("_id", id)))
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewPersistenceError("사용자 조회", err)
	}
	return &user, nil
}

// OperationLogRepository 감사 로그 저장
type OperationLogRepository struct {
	logs Table[models.OperationLog]
}

// NewOperationLogRepository 감사 로그 저장소 생성
func NewOperationLogRepository(store *Store) *OperationLogRepository {
	return &OperationLogRepository{logs: store.OperationLogs}
}

// Save 감사 로그 저장
func (r *OperationLogRepository) Save(ctx context.Context, log models.OperationLog) error {
	_, err := r.logs.Insert(ctx, log)
	return err
}
