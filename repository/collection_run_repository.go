package repository

import (
	"gorm.io/gorm"

	"digital_insight_go/model"
)

// CollectionRunRepository 采集记录仓储接口
type CollectionRunRepository interface {
	Save(run *model.CollectionRunEntity) error
	FindRecent(limit int) ([]*model.CollectionRunEntity, error)
	FindByKind(kind string, limit int) ([]*model.CollectionRunEntity, error)
	CountByKind() ([]model.NameValue, error)
}

type collectionRunRepository struct {
	db *gorm.DB
}

func NewCollectionRunRepository(db *gorm.DB) CollectionRunRepository {
	return &collectionRunRepository{db: db}
}

func (r *collectionRunRepository) Save(run *model.CollectionRunEntity) error {
	return r.db.Create(run).Error
}

func (r *collectionRunRepository) FindRecent(limit int) ([]*model.CollectionRunEntity, error) {
	var runs []*model.CollectionRunEntity
	query := r.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// FindByKind 某一采集类型的最近记录
func (r *collectionRunRepository) FindByKind(kind string, limit int) ([]*model.CollectionRunEntity, error) {
	var runs []*model.CollectionRunEntity
	query := r.db.Where("kind = ?", kind).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, err
}

// CountByKind 按采集类型统计次数
func (r *collectionRunRepository) CountByKind() ([]model.NameValue, error) {
	var rows []model.NameValue
	err := r.db.Model(&model.CollectionRunEntity{}).
		Select("kind AS name, COUNT(*) AS value").
		Group("kind").
		Order("value DESC").
		Scan(&rows).Error
	return rows, err
}
