package repository

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"digital_insight_go/model"
)

// ConsentRepository 同意记录仓储接口
type ConsentRepository interface {
	FindBySession(sessionID string) (*model.ConsentEntity, error)
	Save(consent *model.ConsentEntity) error
	Revoke(sessionID string, at time.Time) error
	CountActive() (int64, error)
}

type consentRepository struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) ConsentRepository {
	return &consentRepository{db: db}
}

// FindBySession 根据会话获取同意记录
func (r *consentRepository) FindBySession(sessionID string) (*model.ConsentEntity, error) {
	var consent model.ConsentEntity
	result := r.db.Where("session_id = ?", sessionID).First(&consent)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &consent, nil
}

// Save 保存同意记录
func (r *consentRepository) Save(consent *model.ConsentEntity) error {
	result := r.db.Create(consent)
	if result.Error != nil {
		return result.Error
	}
	log.Debugf("保存同意记录: session=%s", consent.SessionID)
	return nil
}

// Revoke 撤回同意
func (r *consentRepository) Revoke(sessionID string, at time.Time) error {
	result := r.db.Model(&model.ConsentEntity{}).
		Where("session_id = ? AND revoked_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"revoked_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Infof("已撤回同意: session=%s", sessionID)
	}
	return nil
}

// CountActive 有效同意数量
func (r *consentRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.ConsentEntity{}).Where("revoked_at IS NULL").Count(&count).Error
	return count, err
}
