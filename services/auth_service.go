package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/song-bracket/utils"
)

const adminSubject = "admin"

// AuthService проверяет общий пароль администратора и выдаёт сессионный токен.
// Пользователей нет: любой, кто знает пароль, становится администратором.
type AuthService interface {
	Login(ctx context.Context, password string) (*Session, error)
	ValidateSession(token string) error
}

type Session struct {
	Token     string
	ExpiresAt time.Time
}

type AuthConfig struct {
	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration
}

type authService struct {
	passwordHash string
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthService(cfg AuthConfig, now func() time.Time) (AuthService, error) {
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password must not be empty")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}
	if now == nil {
		now = time.Now
	}

	// Пароль хранится в памяти только в виде хеша.
	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return &authService{
		passwordHash: hash,
		secret:       []byte(cfg.SessionSecret),
		ttl:          cfg.SessionTTL,
		now:          now,
	}, nil
}

func (s *authService) Login(ctx context.Context, password string) (*Session, error) {
	if password == "" || !utils.CheckPasswordHash(password, s.passwordHash) {
		return nil, ErrInvalidPassword
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: tokenString, ExpiresAt: expiresAt}, nil
}

func (s *authService) ValidateSession(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}
	if claims.Subject != adminSubject {
		return ErrInvalidSession
	}
	// Срок проверяем по собственным часам сервиса.
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return ErrInvalidSession
	}
	return nil
}
