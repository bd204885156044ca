package utils

import (
	"errors"
	"fmt"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt 해시 생성
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("비밀번호 해시 실패: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword 비밀번호와 해시 비교
func VerifyPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// SessionClaims 세션 토큰 클레임. 만료는 저장된 세션으로만 판단한다
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	Username  string `json:"username"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid jwt.Claims 구현
func (c SessionClaims) Valid() error {
	if c.SessionID == "" {
		return errors.New("세션 ID가 없는 토큰")
	}
	return nil
}

// GenerateToken 세션 토큰 서명
func GenerateToken(key string, claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(key))
	if err != nil {
		Logger.Error().Err(err).Msg("토큰 생성 실패")
		return "", err
	}
	return tokenString, nil
}

// ParseToken 세션 토큰 서명 검증 및 클레임 추출
func ParseToken(key, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 서명 방식 확인
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("유효하지 않은 토큰")
	}
	return claims, nil
}
