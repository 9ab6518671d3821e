package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"digital_insight_go/analyzer"
	"digital_insight_go/model"
	"digital_insight_go/repository"
	"digital_insight_go/store"
)

// 分析结果文件前缀
const analysisPrefix = "ai_analysis"

// ErrNoAnalysis 还没有分析结果
var ErrNoAnalysis = errors.New("AI分析结果不存在，请先执行AI分析")

// APIKeyStatus API Key 检查结果
type APIKeyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	HasKey  bool   `json:"has_key"`
}

// AnalysisOutcome 一次分析的返回
type AnalysisOutcome struct {
	Status         string               `json:"status"`
	Message        string               `json:"message"`
	Filename       string               `json:"filename"`
	AnalysisResult model.AnalysisResult `json:"analysis_result"`
	AIPowered      bool                 `json:"ai_powered"`
}

// aiCompleter 把 AiService 适配为分析器使用的 LLM
type aiCompleter struct {
	ai  *AiService
	cfg *AiConfigs
}

func (c *aiCompleter) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	return c.ai.SendRequest(ctx, c.cfg, ChatRequest{System: system, Content: prompt, MaxTokens: maxTokens})
}

// AnalysisService AI 性格分析服务
type AnalysisService struct {
	aiService      *AiService
	configService  *ConfigService
	summaryService *SummaryService
	fileStore      *store.FileStore
	analysisRepo   repository.AnalysisRepository
	analyzer       *analyzer.Analyzer
	now            func() time.Time
}

func NewAnalysisService(
	aiService *AiService,
	configService *ConfigService,
	summaryService *SummaryService,
	fileStore *store.FileStore,
	analysisRepo repository.AnalysisRepository,
	language string,
) *AnalysisService {
	return &AnalysisService{
		aiService:      aiService,
		configService:  configService,
		summaryService: summaryService,
		fileStore:      fileStore,
		analysisRepo:   analysisRepo,
		analyzer:       analyzer.NewAnalyzer(language),
		now:            time.Now,
	}
}

// CheckAPIKey 检查当前生效的 API Key
func (s *AnalysisService) CheckAPIKey() APIKeyStatus {
	cfg, err := s.configService.GetAiConfigs("")
	if err != nil {
		var required *ConfigRequiredError
		if errors.As(err, &required) {
			return APIKeyStatus{Status: "not_found", Message: "未找到有效的 API Key（配置文件、环境变量 OPENAI_API_KEY 或设置页）", HasKey: false}
		}
		return APIKeyStatus{Status: "error", Message: fmt.Sprintf("检查 API Key 时出错: %v", err), HasKey: false}
	}
	if !IsValidAPIKey(cfg.APIKey) {
		return APIKeyStatus{Status: "not_found", Message: "已配置的 API Key 格式无效", HasKey: false}
	}
	return APIKeyStatus{
		Status:  "found",
		Message: fmt.Sprintf("已找到 API Key: %s", MaskAPIKey(cfg.APIKey)),
		HasKey:  true,
	}
}

// llmFor 取得可用的 LLM，没有配置 Key 时返回 nil（使用基础分析）
func (s *AnalysisService) llmFor(requestKey string) (analyzer.LLM, string, error) {
	cfg, err := s.configService.GetAiConfigs(requestKey)
	if err != nil {
		var required *ConfigRequiredError
		if errors.As(err, &required) {
			log.Warnf("AI配置缺失（%s），使用基础分析", required.ConfigKey)
			return nil, "", nil
		}
		return nil, "", err
	}
	return &aiCompleter{ai: s.aiService, cfg: cfg}, cfg.Model, nil
}

// Run 基于最新采集数据执行分析，结果保存为 JSON 文件并写入数据库
func (s *AnalysisService) Run(ctx context.Context, sessionID, requestKey string) (*AnalysisOutcome, error) {
	summary, err := s.summaryService.BuildDataSummary()
	if err != nil {
		return nil, fmt.Errorf("准备分析数据失败: %w", err)
	}
	if summary.IsEmpty() {
		log.Warn("没有已采集的数据，分析将基于空摘要进行")
	}

	llm, modelName, err := s.llmFor(requestKey)
	if err != nil {
		return nil, fmt.Errorf("读取AI配置失败: %w", err)
	}

	result := s.analyzer.Analyze(ctx, llm, summary, s.now())

	filename, err := s.fileStore.SaveJSON(analysisPrefix, result)
	if err != nil {
		return nil, fmt.Errorf("保存分析结果失败: %w", err)
	}
	s.saveEntity(sessionID, modelName, filename, result)

	message := "AI分析完成，已执行基础分析。"
	if result.AIPowered {
		message = "AI分析完成，已使用大模型接口。"
	}
	return &AnalysisOutcome{
		Status:         "success",
		Message:        message,
		Filename:       filename,
		AnalysisResult: result,
		AIPowered:      result.AIPowered,
	}, nil
}

func (s *AnalysisService) saveEntity(sessionID, modelName, filename string, result model.AnalysisResult) {
	if s.analysisRepo == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Errorf("序列化分析结果失败: %v", err)
		return
	}
	entity := &model.AnalysisEntity{
		SessionID:     sessionID,
		Model:         modelName,
		AIPowered:     result.AIPowered,
		PredictedType: result.MBTIAnalysis.PredictedType,
		Filename:      filename,
		ResultJSON:    string(data),
	}
	if err := s.analysisRepo.Save(entity); err != nil {
		log.Errorf("保存分析记录失败: %v", err)
	}
}

// Latest 读取最新的分析结果文件，文件已被清理时读取数据库中的记录
func (s *AnalysisService) Latest() (*model.AnalysisResult, string, error) {
	name, err := s.fileStore.Latest(analysisPrefix, ".json")
	if errors.Is(err, store.ErrNotFound) {
		return s.latestFromDB()
	}
	if err != nil {
		return nil, "", err
	}
	var result model.AnalysisResult
	if err := s.fileStore.ReadJSON(name, &result); err != nil {
		return nil, "", fmt.Errorf("读取分析结果失败: %w", err)
	}
	return &result, name, nil
}

func (s *AnalysisService) latestFromDB() (*model.AnalysisResult, string, error) {
	if s.analysisRepo == nil {
		return nil, "", ErrNoAnalysis
	}
	entity, err := s.analysisRepo.FindLatest()
	if err != nil {
		return nil, "", fmt.Errorf("读取分析记录失败: %w", err)
	}
	if entity == nil || entity.ResultJSON == "" {
		return nil, "", ErrNoAnalysis
	}
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(entity.ResultJSON), &result); err != nil {
		return nil, "", fmt.Errorf("解析分析记录失败: %w", err)
	}
	log.Debugf("分析结果文件不存在，使用数据库记录: id=%d", entity.ID)
	return &result, entity.Filename, nil
}

// History 最近的分析记录
func (s *AnalysisService) History(limit int) ([]*model.AnalysisEntity, error) {
	if s.analysisRepo == nil {
		return nil, nil
	}
	return s.analysisRepo.FindAll(limit)
}
