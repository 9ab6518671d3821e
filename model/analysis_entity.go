package model

import (
	"time"
)

// AnalysisEntity AI 分析结果记录
type AnalysisEntity struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	SessionID     string    `gorm:"column:session_id;index;size:36" json:"sessionId"`
	Model         string    `gorm:"column:model;size:64" json:"model"`
	AIPowered     bool      `gorm:"column:ai_powered" json:"aiPowered"`
	PredictedType string    `gorm:"column:predicted_type;size:8" json:"predictedType"`
	Filename      string    `gorm:"column:filename" json:"filename"`
	ResultJSON    string    `gorm:"column:result_json;type:text" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (AnalysisEntity) TableName() string {
	return "analysis"
}
