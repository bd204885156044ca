package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerniceZTT/outreach_crm/config"
	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// 컬렉션 이름
	UsersCollection            = "users"
	CustomersCollection        = "customers"
	CallLogsCollection         = "call_logs"
	CallLogHistoryCollection   = "call_log_history"
	ApiOperationLogsCollection = "apiOperationLogs"
)

var allCollections = []string{
	UsersCollection,
	CustomersCollection,
	CallLogsCollection,
	CallLogHistoryCollection,
	ApiOperationLogsCollection,
}

// OpenStore 설정된 드라이버로 저장소 생성
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.StoreDriver == "memory" {
		utils.Logger.Warn().Msg("메모리 저장소 사용 중: 재시작하면 데이터가 사라집니다")
		return NewMemoryStore(), nil
	}
	return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
}

// NewMongoStore MongoDB 연결 후 저장소 생성
func NewMongoStore(ctx context.Context, uri, dbName string) (*Store, error) {
	// 연결 타임아웃
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("MongoDB 연결 실패: %w", err)
	}

	// 연결 확인
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDB ping 실패: %w", err)
	}

	db := client.Database(dbName)
	utils.Logger.Info().Str("database", dbName).Msg("MongoDB 연결됨")

	return &Store{
		Driver:         "mongo",
		Users:          NewMongoTable[models.User](db, UsersCollection),
		Customers:      NewMongoTable[models.Customer](db, CustomersCollection),
		CallLogs:       NewMongoTable[models.CallLog](db, CallLogsCollection),
		CallLogHistory: NewMongoTable[models.CallLogHistoryEntry](db, CallLogHistoryCollection),
		OperationLogs:  NewMongoTable[models.OperationLog](db, ApiOperationLogsCollection),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			if err := client.Disconnect(ctx); err != nil {
				utils.Logger.Error().Err(err).Msg("MongoDB 연결 종료 실패")
				return err
			}
			utils.Logger.Info().Msg("MongoDB 연결 종료")
			return nil
		},
		init: func(ctx context.Context) error {
			return initializeCollections(ctx, db)
		},
	}, nil
}

// initializeCollections 컬렉션과 인덱스 생성
func initializeCollections(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("컬렉션 조회 실패: %w", err)
	}
	exists := map[string]bool{}
	for _, name := range existing {
		exists[name] = true
	}

	for _, name := range allCollections {
		if exists[name] {
			utils.Logger.Debug().Str("collection", name).Msg("컬렉션 존재")
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("컬렉션 생성 실패(%s): %w", name, err)
		}
		utils.Logger.Info().Str("collection", name).Msg("컬렉션 생성")
	}

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CustomersCollection: {
			{Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CallLogsCollection: {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CallLogHistoryCollection: {
			{Keys: bson.D{{Key: "call_log_id", Value: 1}, {Key: "modified_at", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("인덱스 생성 실패(%s): %w", name, err)
		}
	}
	return nil
}

// Initialize 컬렉션/인덱스 준비 (Mongo 전용, 메모리는 무시)
func (s *Store) Initialize(ctx context.Context) error {
	if s.init == nil {
		return nil
	}
	return s.init(ctx)
}

// InitializeAdminAccount 설정의 관리자 계정이 없으면 생성
func InitializeAdminAccount(ctx context.Context, store *Store, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		utils.Logger.Info().Msg("ADMIN_PASSWORD 미설정: 관리자 계정 생성 생략")
		return nil
	}

	_, err := store.Users.Single(ctx, Where(Eq("username", cfg.AdminUsername)))
	if err == nil {
		utils.Logger.Info().Str("username", cfg.AdminUsername).Msg("관리자 계정 존재, 생성 생략")
		return nil
	}
	if !errors.Is(err, ErrNoRows) {
		return fmt.Errorf("관리자 계정 확인 실패: %w", err)
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:       cfg.AdminUsername,
		CredentialHash: hash,
		DisplayName:    cfg.AdminDisplayName,
		Email:          cfg.SenderFallbackEmail,
		Phone:          cfg.SenderFallbackPhone,
		CreatedAt:      time.Now(),
	}
	if _, err := store.Users.Insert(ctx, admin); err != nil {
		return fmt.Errorf("관리자 계정 생성 실패: %w", err)
	}

	utils.Logger.Info().Str("username", cfg.AdminUsername).Msg("관리자 계정 생성")
	return nil
}

// GetDatabaseStatus 저장소 연결 상태와 컬렉션별 문서 수
func GetDatabaseStatus(ctx context.Context, store *Store) models.DbStatus {
	status := models.DbStatus{Driver: store.Driver, Collections: map[string]int{}}
	if err := store.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true

	counters := map[string]func(context.Context, []Cond) (int64, error){
		UsersCollection:            store.Users.Count,
		CustomersCollection:        store.Customers.Count,
		CallLogsCollection:         store.CallLogs.Count,
		CallLogHistoryCollection:   store.CallLogHistory.Count,
		ApiOperationLogsCollection: store.OperationLogs.Count,
	}
	for name, count := range counters {
		n, err := count(ctx, nil)
		if err != nil {
			utils.Logger.Error().Err(err).Str("collection", name).Msg("컬렉션 문서 수 조회 실패")
			status.Collections[name] = -1
			continue
		}
		status.Collections[name] = int(n)
	}
	return status
}
