package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
	"digital_insight_go/repository"
)

const (
	consentIssuer = "digital-insight"
	consentTTL    = 24 * time.Hour
)

// ErrNoConsent 未同意或同意已撤回
var ErrNoConsent = errors.New("未同意数据采集")

// ConsentClaims 同意凭证
type ConsentClaims struct {
	jwt.RegisteredClaims
	ConsentTime int64 `json:"consent_at"`
}

// ConsentService 同意流程：签发 HS256 凭证并记录到数据库
type ConsentService struct {
	consentRepo repository.ConsentRepository
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

func NewConsentService(consentRepo repository.ConsentRepository, secret string) *ConsentService {
	return &ConsentService{
		consentRepo: consentRepo,
		secret:      []byte(secret),
		ttl:         consentTTL,
		now:         time.Now,
	}
}

// TTL 凭证有效期
func (s *ConsentService) TTL() time.Duration {
	return s.ttl
}

// Grant 记录同意并签发凭证，返回凭证和会话 ID
func (s *ConsentService) Grant(remoteAddr, userAgent string) (string, string, error) {
	now := s.now()
	sessionID := uuid.NewString()

	if s.consentRepo != nil {
		entity := &model.ConsentEntity{
			SessionID:   sessionID,
			ConsentTime: now,
			RemoteAddr:  remoteAddr,
			UserAgent:   userAgent,
		}
		if err := s.consentRepo.Save(entity); err != nil {
			return "", "", fmt.Errorf("保存同意记录失败: %w", err)
		}
	}

	claims := ConsentClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    consentIssuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		ConsentTime: now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("签发同意凭证失败: %w", err)
	}
	log.Infof("用户已同意数据采集: session=%s", sessionID)
	return token, sessionID, nil
}

// Verify 校验凭证并返回会话 ID
func (s *ConsentService) Verify(tokenValue string) (string, error) {
	if tokenValue == "" {
		return "", ErrNoConsent
	}

	claims := &ConsentClaims{}
	token, err := jwt.ParseWithClaims(tokenValue, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(consentIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrNoConsent
	}

	if s.consentRepo != nil {
		consent, err := s.consentRepo.FindBySession(claims.Subject)
		if err != nil {
			return "", err
		}
		if !consent.Active() {
			return "", ErrNoConsent
		}
	}
	return claims.Subject, nil
}

// Withdraw 撤回同意
func (s *ConsentService) Withdraw(sessionID string) error {
	if s.consentRepo == nil || sessionID == "" {
		return nil
	}
	return s.consentRepo.Revoke(sessionID, s.now())
}

// ActiveCount 仍然有效的同意记录数
func (s *ConsentService) ActiveCount() (int64, error) {
	if s.consentRepo == nil {
		return 0, nil
	}
	return s.consentRepo.CountActive()
}
