package model

import (
	"time"
)

// 运行时配置分类
const (
	ConfigCategoryAI = "ai"
)

// ConfigEntity 运行时配置（可在页面上修改，优先级高于配置文件）
type ConfigEntity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ConfigKey   string    `gorm:"column:config_key;uniqueIndex;size:64" json:"configKey"`
	ConfigValue string    `gorm:"column:config_value" json:"configValue"`
	Category    string    `gorm:"column:category;size:32" json:"category"`
	Secret      bool      `gorm:"column:secret" json:"secret"` // 是否敏感（接口返回时打码）
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (ConfigEntity) TableName() string {
	return "config"
}
