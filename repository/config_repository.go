package repository

import (
	"errors"

	"gorm.io/gorm"

	"digital_insight_go/model"
)

// ConfigRepository 运行时配置仓储接口
type ConfigRepository interface {
	FindAll() ([]*model.ConfigEntity, error)
	FindByKey(configKey string) (*model.ConfigEntity, error)
	FindByCategory(category string) ([]*model.ConfigEntity, error)
	Save(config *model.ConfigEntity) error
	Update(config *model.ConfigEntity) error
}

type configRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

// FindAll 按创建顺序返回全部配置
func (r *configRepository) FindAll() ([]*model.ConfigEntity, error) {
	return r.list(r.db)
}

// FindByKey 不存在时返回 nil, nil
func (r *configRepository) FindByKey(configKey string) (*model.ConfigEntity, error) {
	var entity model.ConfigEntity
	err := r.db.Where("config_key = ?", configKey).Take(&entity).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &entity, nil
}

// FindByCategory 设置页按分类筛选
func (r *configRepository) FindByCategory(category string) ([]*model.ConfigEntity, error) {
	return r.list(r.db.Where("category = ?", category))
}

func (r *configRepository) Save(config *model.ConfigEntity) error {
	return r.db.Create(config).Error
}

// Update 整行保存（含 updated_at）
func (r *configRepository) Update(config *model.ConfigEntity) error {
	return r.db.Save(config).Error
}

func (r *configRepository) list(query *gorm.DB) ([]*model.ConfigEntity, error) {
	var entities []*model.ConfigEntity
	if err := query.Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}
