package analyzer

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"digital_insight_go/model"
)

// TimestampLayout 分析时间戳格式
const TimestampLayout = "2006-01-02T15:04:05"

// 各部分回复的 token 上限
const (
	insightsMaxTokens = 1000
	mbtiMaxTokens     = 800
	traitsMaxTokens   = 800
	recsMaxTokens     = 1000
)

// LLM 大模型补全接口
type LLM interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Analyzer 性格分析器
type Analyzer struct {
	lang string
}

// NewAnalyzer 创建分析器，lang 为回答语言（zh/ko/en）
func NewAnalyzer(lang string) *Analyzer {
	return &Analyzer{lang: lang}
}

// Analyze 生成完整分析结果
// llm 为 nil 时返回基础分析；四个部分并发请求，任一部分失败时使用该部分的默认结果
func (a *Analyzer) Analyze(ctx context.Context, llm LLM, summary model.DataSummary, now time.Time) model.AnalysisResult {
	timestamp := now.Format(TimestampLayout)
	if llm == nil {
		log.Info("未配置AI，使用基础分析")
		return BasicAnalysis(timestamp)
	}

	result := model.AnalysisResult{AnalysisTimestamp: timestamp}
	var ok [4]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.AIInsights, ok[0] = a.insights(gctx, llm, summary)
		return nil
	})
	g.Go(func() error {
		result.MBTIAnalysis, ok[1] = a.mbti(gctx, llm, summary)
		return nil
	})
	g.Go(func() error {
		result.PersonalityTraits, ok[2] = a.traits(gctx, llm, summary)
		return nil
	})
	g.Go(func() error {
		result.Recommendations, ok[3] = a.recommendations(gctx, llm, summary)
		return nil
	})
	_ = g.Wait()

	for _, v := range ok {
		if v {
			result.AIPowered = true
			break
		}
	}
	log.Infof("AI分析完成，成功部分: %d/4", countTrue(ok[:]))
	return result
}

func (a *Analyzer) insights(ctx context.Context, llm LLM, summary model.DataSummary) (model.Insights, bool) {
	resp, err := llm.Complete(ctx, systemInsights, insightsPrompt(summary, a.lang), insightsMaxTokens)
	if err != nil {
		log.Errorf("生成AI洞察失败: %v", err)
		return failedInsights(), false
	}
	insights, err := ParseInsights(resp)
	if err != nil {
		log.Warnf("解析AI洞察失败: %v", err)
		return failedInsights(), false
	}
	return insights, true
}

func (a *Analyzer) mbti(ctx context.Context, llm LLM, summary model.DataSummary) (model.MBTIAnalysis, bool) {
	resp, err := llm.Complete(ctx, systemMBTI, mbtiPrompt(summary, a.lang), mbtiMaxTokens)
	if err != nil {
		log.Errorf("MBTI分析失败: %v", err)
		return DefaultMBTI(), false
	}
	mbti, err := ParseMBTI(resp)
	if err != nil {
		log.Warnf("解析MBTI回复失败: %v", err)
		return DefaultMBTI(), false
	}
	return mbti, true
}

func (a *Analyzer) traits(ctx context.Context, llm LLM, summary model.DataSummary) (model.PersonalityTraits, bool) {
	resp, err := llm.Complete(ctx, systemTraits, traitsPrompt(summary, a.lang), traitsMaxTokens)
	if err != nil {
		log.Errorf("性格特征分析失败: %v", err)
		return DefaultTraits(), false
	}
	traits, err := ParseTraits(resp)
	if err != nil {
		log.Warnf("解析性格特征失败: %v", err)
		return DefaultTraits(), false
	}
	return traits, true
}

func (a *Analyzer) recommendations(ctx context.Context, llm LLM, summary model.DataSummary) (model.Recommendations, bool) {
	resp, err := llm.Complete(ctx, systemRecs, recommendationsPrompt(summary, a.lang), recsMaxTokens)
	if err != nil {
		log.Errorf("生成推荐失败: %v", err)
		return DefaultRecommendations(), false
	}
	recs, err := ParseRecommendations(resp)
	if err != nil {
		log.Warnf("解析推荐失败: %v", err)
		return DefaultRecommendations(), false
	}
	return recs, true
}

func countTrue(values []bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}
