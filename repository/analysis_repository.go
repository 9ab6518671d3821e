package repository

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"digital_insight_go/model"
)

// AnalysisRepository AI 分析结果仓储接口
type AnalysisRepository interface {
	FindAll(limit int) ([]*model.AnalysisEntity, error)
	FindLatest() (*model.AnalysisEntity, error)
	Save(analysis *model.AnalysisEntity) error
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) FindAll(limit int) ([]*model.AnalysisEntity, error) {
	var analyses []*model.AnalysisEntity
	query := r.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// FindLatest 最新一条分析记录，不存在时返回 nil, nil
func (r *analysisRepository) FindLatest() (*model.AnalysisEntity, error) {
	var analysis model.AnalysisEntity
	result := r.db.Order("id DESC").First(&analysis)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &analysis, nil
}

func (r *analysisRepository) Save(analysis *model.AnalysisEntity) error {
	result := r.db.Create(analysis)
	if result.Error != nil {
		return result.Error
	}
	log.Infof("保存AI分析结果，ID: %d", analysis.ID)
	return nil
}
