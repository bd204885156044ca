package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User 사용자. 관리자 시드 외에는 생성 경로가 없다
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username       string             `bson:"username" json:"username"`
	CredentialHash string             `bson:"credential_hash" json:"-"` // 비밀번호 해시는 응답에 포함하지 않음
	DisplayName    string             `bson:"display_name" json:"display_name"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone" json:"phone"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// SenderIdentity 메시지 템플릿의 발신자 정보
type SenderIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Sender 사용자 정보로 발신자 정보 생성
func (u User) Sender() SenderIdentity {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return SenderIdentity{Name: name, Email: u.Email, Phone: u.Phone}
}

// LoginRequest 로그인 요청
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthSession 인증 세션
type AuthSession struct {
	Token     string    `json:"token,omitempty"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 만료 여부
func (s *AuthSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DbStatus 데이터베이스 상태
type DbStatus struct {
	Driver      string         `json:"driver"`
	Connected   bool           `json:"connected"`
	Collections map[string]int `json:"collections"`
	Error       string         `json:"error,omitempty"`
}
