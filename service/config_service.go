package service

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/repository"
)

// 运行时可修改的 AI 配置键
const (
	ConfigKeyBaseURL = "BASE_URL"
	ConfigKeyAPIKey  = "API_KEY"
	ConfigKeyModel   = "MODEL"
)

// 默认配置行
var defaultConfigRows = []model.ConfigEntity{
	{ConfigKey: ConfigKeyBaseURL, Category: model.ConfigCategoryAI, Description: "OpenAI 兼容接口地址"},
	{ConfigKey: ConfigKeyAPIKey, Category: model.ConfigCategoryAI, Secret: true, Description: "API Key"},
	{ConfigKey: ConfigKeyModel, Category: model.ConfigCategoryAI, Description: "模型名称"},
}

// AiConfigs AI 调用所需的基础配置
type AiConfigs struct {
	BaseURL string
	APIKey  string
	Model   string
}

type ConfigService struct {
	configRepo repository.ConfigRepository
	fileAI     config.AIConfig
}

func NewConfigService(configRepo repository.ConfigRepository, fileAI config.AIConfig) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		fileAI:     fileAI,
	}
}

// EnsureDefaults 初始化默认配置行（已存在的不覆盖）
func (s *ConfigService) EnsureDefaults() error {
	for _, row := range defaultConfigRows {
		existing, err := s.configRepo.FindByKey(row.ConfigKey)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		entity := row
		if _, err := s.CreateConfig(&entity); err != nil {
			return fmt.Errorf("初始化配置 %s 失败: %w", row.ConfigKey, err)
		}
	}
	return nil
}

// GetAllConfigsAsMap 获取所有配置（以Map形式返回）
func (s *ConfigService) GetAllConfigsAsMap() (map[string]string, error) {
	configs, err := s.configRepo.FindAll()
	if err != nil {
		return nil, err
	}

	configMap := make(map[string]string)
	for _, c := range configs {
		configMap[c.ConfigKey] = c.ConfigValue
	}
	return configMap, nil
}

// GetAllConfigs 获取所有配置，敏感值打码
func (s *ConfigService) GetAllConfigs() ([]*model.ConfigEntity, error) {
	configs, err := s.configRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return maskSecrets(configs), nil
}

// GetConfigsByCategory 根据分类获取配置列表，敏感值打码
func (s *ConfigService) GetConfigsByCategory(category string) ([]*model.ConfigEntity, error) {
	configs, err := s.configRepo.FindByCategory(category)
	if err != nil {
		return nil, err
	}
	return maskSecrets(configs), nil
}

func maskSecrets(configs []*model.ConfigEntity) []*model.ConfigEntity {
	for _, c := range configs {
		if c.Secret && c.ConfigValue != "" {
			c.ConfigValue = MaskAPIKey(c.ConfigValue)
		}
	}
	return configs
}

// GetAiConfigs 合并 AI 配置：请求参数 > 数据库 > 配置文件/环境变量
func (s *ConfigService) GetAiConfigs(requestKey string) (*AiConfigs, error) {
	dbValues, err := s.GetAllConfigsAsMap()
	if err != nil {
		return nil, err
	}

	pick := func(key string, candidates ...string) (string, error) {
		for _, v := range candidates {
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), nil
			}
		}
		return "", &ConfigRequiredError{ConfigKey: key}
	}

	apiKey, err := pick(ConfigKeyAPIKey, requestKey, dbValues[ConfigKeyAPIKey], s.fileAI.APIKey)
	if err != nil {
		return nil, err
	}
	baseURL, err := pick(ConfigKeyBaseURL, dbValues[ConfigKeyBaseURL], s.fileAI.BaseURL)
	if err != nil {
		return nil, err
	}
	modelName, err := pick(ConfigKeyModel, dbValues[ConfigKeyModel], s.fileAI.Model)
	if err != nil {
		return nil, err
	}

	return &AiConfigs{BaseURL: baseURL, APIKey: apiKey, Model: modelName}, nil
}

// BatchUpdateConfigs 批量更新配置，不存在的 AI 配置键自动创建
func (s *ConfigService) BatchUpdateConfigs(configMap map[string]string) (int, error) {
	updateCount := 0
	for key, value := range configMap {
		ok, err := s.UpdateConfig(key, value)
		if err != nil {
			return updateCount, err
		}
		if ok {
			updateCount++
			continue
		}
		if !isKnownConfigKey(key) {
			log.Warnf("配置键不存在: %s", key)
			continue
		}
		entity := knownConfigRow(key)
		entity.ConfigValue = value
		if _, err := s.CreateConfig(&entity); err != nil {
			return updateCount, err
		}
		updateCount++
	}
	return updateCount, nil
}

// UpdateConfig 更新单个配置，键不存在时返回 false
func (s *ConfigService) UpdateConfig(configKey, configValue string) (bool, error) {
	entity, err := s.configRepo.FindByKey(configKey)
	if err != nil {
		return false, err
	}
	if entity == nil {
		return false, nil
	}

	entity.ConfigValue = configValue
	entity.UpdatedAt = time.Now()
	if err := s.configRepo.Update(entity); err != nil {
		return false, err
	}
	if entity.Secret {
		log.Infof("更新配置成功: %s = %s", configKey, MaskAPIKey(configValue))
	} else {
		log.Infof("更新配置成功: %s = %s", configKey, configValue)
	}
	return true, nil
}

// CreateConfig 创建新配置
func (s *ConfigService) CreateConfig(entity *model.ConfigEntity) (bool, error) {
	now := time.Now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if err := s.configRepo.Save(entity); err != nil {
		return false, err
	}
	log.Debugf("创建配置成功: %s", entity.ConfigKey)
	return true, nil
}

func isKnownConfigKey(key string) bool {
	for _, row := range defaultConfigRows {
		if row.ConfigKey == key {
			return true
		}
	}
	return false
}

func knownConfigRow(key string) model.ConfigEntity {
	for _, row := range defaultConfigRows {
		if row.ConfigKey == key {
			return row
		}
	}
	return model.ConfigEntity{ConfigKey: key}
}

// ConfigRequiredError 配置缺失错误
type ConfigRequiredError struct {
	ConfigKey string
}

func (e *ConfigRequiredError) Error() string {
	return "缺少必要配置: " + e.ConfigKey
}
