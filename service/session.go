package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/BerniceZTT/outreach_crm/models"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KeyValueStore 세션 저장소 경계
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// RedisKV Redis 기반 키-값 저장소
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV Redis 키-값 저장소 생성
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// MemoryKV 프로세스 내 키-값 저장소. 만료는 세션 값의 expires_at 으로만 판단한다
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV 메모리 키-값 저장소 생성
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// UserFinder 로그인용 사용자 조회
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// SessionOptions 세션 저장소 설정
type SessionOptions struct {
	SigningKey    string
	TTL           time.Duration
	CheckInterval time.Duration
	Now           func() time.Time
}

// SessionStore 로그인 세션 발급/검증. 유효성은 저장된 세션 값 하나로만 판단한다
type SessionStore struct {
	kv    KeyValueStore
	users UserFinder
	opts  SessionOptions
}

// storedSession 저장되는 세션 값
type storedSession struct {
	User      models.User `json:"user"`
	ExpiresAt int64       `json:"expires_at"` // epoch ms
}

// ErrInvalidCredentials 아이디/비밀번호 불일치
var ErrInvalidCredentials = utils.NewAuthError("아이디 또는 비밀번호가 올바르지 않습니다")

// NewSessionStore 세션 저장소 생성
func NewSessionStore(kv KeyValueStore, users UserFinder, opts SessionOptions) *SessionStore {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionStore{kv: kv, users: users, opts: opts}
}

// SessionKey 세션 ID의 저장 키
func SessionKey(sessionID string) string {
	return "crm:session:" + sessionID
}

// Login 자격 증명 확인 후 세션 발급
func (s *SessionStore) Login(ctx context.Context, username, secret string) (*models.AuthSession, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.VerifyPassword(user.CredentialHash, secret) {
		utils.Logger.Info().Str("username", username).Msg("로그인 실패")
		return nil, ErrInvalidCredentials
	}

	now := s.opts.Now()
	sessionID := uuid.NewString()
	token, err := utils.GenerateToken(s.opts.SigningKey, utils.SessionClaims{
		SessionID: sessionID,
		UserID:    user.ID.Hex(),
		Username:  user.Username,
		IssuedAt:  now.Unix(),
	})
	if err != nil {
		return nil, utils.NewPersistenceError("토큰 생성", err)
	}

	expiresAt := now.Add(s.opts.TTL)
	if err := s.save(ctx, sessionID, *user, expiresAt); err != nil {
		return nil, err
	}

	utils.LogInfo(map[string]interface{}{"username": user.Username, "expiresAt": expiresAt}, "로그인 성공")
	return &models.AuthSession{Token: token, User: *user, ExpiresAt: expiresAt}, nil
}

func (s *SessionStore) save(ctx context.Context, sessionID string, user models.User, expiresAt time.Time) error {
	data, err := json.Marshal(storedSession{User: user, ExpiresAt: expiresAt.UnixMilli()})
	if err != nil {
		return utils.NewPersistenceError("세션 저장", err)
	}
	if err := s.kv.Set(ctx, SessionKey(sessionID), string(data), s.opts.TTL); err != nil {
		return utils.NewPersistenceError("세션 저장", err)
	}
	return nil
}

// CurrentUser 토큰의 세션 조회. 없거나 만료되면 nil (만료된 값은 삭제)
func (s *SessionStore) CurrentUser(ctx context.Context, token string) (*models.AuthSession, error) {
	claims, err := utils.ParseToken(s.opts.SigningKey, token)
	if err != nil {
		return nil, utils.NewAuthError("유효하지 않은 토큰입니다")
	}

	key := SessionKey(claims.SessionID)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, utils.NewPersistenceError("세션 조회", err)
	}
	if !ok {
		return nil, nil
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		utils.Logger.Warn().Err(err).Msg("손상된 세션 값 삭제")
		_ = s.kv.Remove(ctx, key)
		return nil, nil
	}

	expiresAt := time.UnixMilli(stored.ExpiresAt)
	if !s.opts.Now().Before(expiresAt) {
		if err := s.kv.Remove(ctx, key); err != nil {
			return nil, utils.NewPersistenceError("만료 세션 삭제", err)
		}
		utils.Logger.Info().Str("username", stored.User.Username).Msg("세션 만료")
		return nil, nil
	}

	// 저장된 사용자와 토큰이 가리키는 사용자가 다르면 무효
	if claims.UserID != "" && stored.User.ID != primitive.NilObjectID && claims.UserID != stored.User.ID.Hex() {
		return nil, utils.NewAuthError("유효하지 않은 토큰입니다")
	}

	return &models.AuthSession{Token: token, User: stored.User, ExpiresAt: expiresAt}, nil
}

// Logout 세션 삭제. 이미 무효한 토큰이면 아무것도 하지 않는다
func (s *SessionStore) Logout(ctx context.Context, token string) error {
	claims, err := utils.ParseToken(s.opts.SigningKey, token)
	if err != nil {
		return nil
	}
	if err := s.kv.Remove(ctx, SessionKey(claims.SessionID)); err != nil {
		return utils.NewPersistenceError("로그아웃", err)
	}
	utils.LogInfo(map[string]interface{}{"username": claims.Username}, "로그아웃")
	return nil
}

// Watch 세션이 살아있는 동안 주기적으로 만료를 확인하고, 만료되면 onExpire 를 한 번 호출한다.
// 반환된 stop 으로 확인을 멈춘다 (로그아웃/연결 종료 시)
func (s *SessionStore) Watch(ctx context.Context, token string, onExpire func()) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	RunEvery(ctx, s.opts.CheckInterval, func(ctx context.Context) bool {
		session, err := s.CurrentUser(ctx, token)
		if errors.Is(err, utils.ErrPersistence) {
			utils.Logger.Warn().Err(err).Msg("세션 확인 실패, 다음 주기에 재확인")
			return true
		}
		if err != nil || session == nil {
			onExpire()
			cancel()
			return false
		}
		return true
	})
	return cancel
}
