package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/config"
)

// AiService OpenAI 兼容接口客户端
type AiService struct {
	httpClient  *http.Client
	temperature float64
	maxRetries  uint64
	backoff     time.Duration
}

func NewAiService(cfg config.AIConfig) *AiService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AiService{
		httpClient:  &http.Client{Timeout: timeout},
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Second,
	}
}

// AI请求结构体
type aiRequest struct {
	Model        string      `json:"model"`
	Temperature  float64     `json:"temperature,omitempty"`
	MaxTokens    int         `json:"max_tokens,omitempty"`
	Input        string      `json:"input,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	Messages     []aiMessage `json:"messages,omitempty"`
}

type aiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AI响应结构体
type aiResponse struct {
	ID         string     `json:"id"`
	Model      string     `json:"model"`
	Created    int64      `json:"created"`
	Choices    []aiChoice `json:"choices,omitempty"`
	Usage      aiUsage    `json:"usage,omitempty"`
	OutputText string     `json:"output_text,omitempty"` // Responses API 字段
}

type aiChoice struct {
	Message aiMessage `json:"message"`
}

type aiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatRequest 单次对话
type ChatRequest struct {
	System    string
	Content   string
	MaxTokens int
}

// aiStatusError 非 200 响应
type aiStatusError struct {
	StatusCode int
	Body       string
}

func (e *aiStatusError) Error() string {
	return fmt.Sprintf("AI请求失败，状态码: %d，详情: %s", e.StatusCode, e.Body)
}

func (e *aiStatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// SendRequest 发送AI请求并返回回复内容，网络错误、429、5xx 按指数退避重试
func (s *AiService) SendRequest(ctx context.Context, cfg *AiConfigs, chat ChatRequest) (string, error) {
	if cfg == nil || cfg.BaseURL == "" || cfg.APIKey == "" || cfg.Model == "" {
		return "", errors.New("AI配置不完整")
	}

	// 根据模型类型选择端点
	endpoint := buildEndpoint(cfg.BaseURL, cfg.Model)

	var content string
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := s.send(ctx, endpoint, cfg, chat)

		var statusErr *aiStatusError
		if errors.As(err, &statusErr) && !strings.HasSuffix(endpoint, "/responses") &&
			containsReasoningParamError(statusErr.Body) {
			log.Warn("检测到 reasoning 相关参数错误，自动切换到 Responses API 重试")
			endpoint = buildResponsesEndpoint(cfg.BaseURL)
			out, err = s.send(ctx, endpoint, cfg, chat)
		}
		if err == nil {
			content = out
			return nil
		}

		if errors.As(err, &statusErr) {
			if statusErr.retryable() {
				log.Warnf("AI请求失败，准备重试: status=%d", statusErr.StatusCode)
				return retry.RetryableError(err)
			}
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		log.Warnf("AI请求网络错误，准备重试: %v", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *AiService) send(ctx context.Context, endpoint string, cfg *AiConfigs, chat ChatRequest) (string, error) {
	requestData := s.buildRequestData(cfg.Model, chat, endpoint)

	req, err := createHttpRequest(ctx, endpoint, cfg.APIKey, requestData)
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("AI请求失败: endpoint=%s, status=%d, body=%s", endpoint, resp.StatusCode, truncate(string(body), 500))
		return "", &aiStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return parseSuccessResponse(body, endpoint)
}

// buildRequestData 构建请求数据
func (s *AiService) buildRequestData(model string, chat ChatRequest, endpoint string) aiRequest {
	requestData := aiRequest{
		Model:       model,
		Temperature: s.temperature,
	}

	if strings.HasSuffix(endpoint, "/responses") {
		requestData.Input = chat.Content
		requestData.Instructions = chat.System
		return requestData
	}

	requestData.MaxTokens = chat.MaxTokens
	if chat.System != "" {
		requestData.Messages = append(requestData.Messages, aiMessage{Role: "system", Content: chat.System})
	}
	requestData.Messages = append(requestData.Messages, aiMessage{Role: "user", Content: chat.Content})
	return requestData
}

// createHttpRequest 创建HTTP请求
func createHttpRequest(ctx context.Context, endpoint, apiKey string, requestData aiRequest) (*http.Request, error) {
	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("api-key", apiKey) // 兼容Azure OpenAI
	return req, nil
}

// parseSuccessResponse 解析成功响应
func parseSuccessResponse(body []byte, endpoint string) (string, error) {
	var responseObj aiResponse
	if err := json.Unmarshal(body, &responseObj); err != nil {
		return "", fmt.Errorf("解析响应JSON失败: %w", err)
	}

	var responseContent string
	if strings.HasSuffix(endpoint, "/responses") {
		responseContent = responseObj.OutputText
		if responseContent == "" {
			// 兜底解析
			if len(responseObj.Choices) > 0 {
				responseContent = responseObj.Choices[0].Message.Content
			} else {
				responseContent = string(body)
			}
		}
	} else {
		if len(responseObj.Choices) == 0 {
			return "", fmt.Errorf("响应中没有choices字段")
		}
		responseContent = responseObj.Choices[0].Message.Content
	}

	createdTime := time.Now()
	if responseObj.Created > 0 {
		createdTime = time.Unix(responseObj.Created, 0)
	}
	log.Infof("AI响应: id=%s, time=%s, model=%s, promptTokens=%d, completionTokens=%d, totalTokens=%d",
		responseObj.ID, createdTime.Format("2006-01-02 15:04:05"), responseObj.Model,
		responseObj.Usage.PromptTokens, responseObj.Usage.CompletionTokens, responseObj.Usage.TotalTokens)

	return responseContent, nil
}

// ================= 工具方法 =================

func normalizeBaseUrl(baseUrl string) string {
	return strings.TrimSuffix(strings.TrimSpace(baseUrl), "/")
}

// buildEndpoint 构建API端点
func buildEndpoint(baseUrl, model string) string {
	if isResponsesModel(model) {
		return buildResponsesEndpoint(baseUrl)
	}
	normalized := normalizeBaseUrl(baseUrl)
	if strings.Contains(normalized, "/v1") {
		return normalized + "/chat/completions"
	}
	return normalized + "/v1/chat/completions"
}

func buildResponsesEndpoint(baseUrl string) string {
	normalized := normalizeBaseUrl(baseUrl)
	if strings.Contains(normalized, "/v1") {
		return normalized + "/responses"
	}
	return normalized + "/v1/responses"
}

func isResponsesModel(model string) bool {
	if model == "" {
		return false
	}
	modelLower := strings.ToLower(model)
	for _, marker := range []string{"o1", "o3", "o4", "4.1", "reasoner", "4o-mini"} {
		if strings.Contains(modelLower, marker) {
			return true
		}
	}
	return false
}

func containsReasoningParamError(body string) bool {
	bodyLower := strings.ToLower(body)
	return (strings.Contains(bodyLower, "reasoning") && strings.Contains(bodyLower, "unsupported_value")) ||
		strings.Contains(bodyLower, "reasoning.summary")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
