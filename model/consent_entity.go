package model

import (
	"time"
)

// ConsentEntity 数据采集同意记录
type ConsentEntity struct {
	ID          int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	SessionID   string     `gorm:"column:session_id;uniqueIndex;size:36" json:"sessionId"`
	ConsentTime time.Time  `gorm:"column:consent_time" json:"consentTime"`
	RemoteAddr  string     `gorm:"column:remote_addr" json:"remoteAddr"`
	UserAgent   string     `gorm:"column:user_agent" json:"userAgent"`
	RevokedAt   *time.Time `gorm:"column:revoked_at" json:"revokedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (ConsentEntity) TableName() string {
	return "consent"
}

// Active 同意是否仍然有效
func (c *ConsentEntity) Active() bool {
	return c != nil && c.RevokedAt == nil
}
