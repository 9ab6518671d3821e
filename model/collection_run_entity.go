package model

import (
	"time"
)

// 采集状态
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// CollectionRunEntity 采集执行记录
type CollectionRunEntity struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	SessionID  string    `gorm:"column:session_id;index;size:36" json:"sessionId"`
	Kind       string    `gorm:"column:kind;index;size:32" json:"kind"`
	Source     string    `gorm:"column:source;size:32" json:"source"` // real / sample_fallback / sample_cloud
	Status     string    `gorm:"column:status;size:16" json:"status"`
	TotalCount int       `gorm:"column:total_count" json:"totalCount"`
	Filename   string    `gorm:"column:filename" json:"filename"`
	ErrorMsg   string    `gorm:"column:error_msg" json:"errorMsg,omitempty"`
	DurationMs int64     `gorm:"column:duration_ms" json:"durationMs"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (CollectionRunEntity) TableName() string {
	return "collection_run"
}
