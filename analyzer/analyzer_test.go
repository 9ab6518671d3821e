package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital_insight_go/model"
)

func TestExtractJSON(t *testing.T) {
	js, ok := ExtractJSON("```json\n{\"a\": {\"b\": \"}\"}}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "}"}}`, js)

	js, ok = ExtractJSON(`好的，结果如下 {"x":1} 以上`)
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, js)

	_, ok = ExtractJSON("没有 JSON")
	assert.False(t, ok)

	_, ok = ExtractJSON(`{"x": 1`)
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 42, Clamp(42))
	assert.Equal(t, 100, Clamp(180))
}

func TestParseInsightsJSON(t *testing.T) {
	insights, err := ParseInsights(`{"overview":"概况","strengths":"优势","work_style":"方式","interests":"兴趣"}`)
	require.NoError(t, err)
	assert.Equal(t, model.Insights{Overview: "概况", Strengths: "优势", WorkStyle: "方式", Interests: "兴趣"}, insights)
}

func TestParseInsightsText(t *testing.T) {
	resp := "总体来看用户偏好技术类工具。\n\n优势:\n善于学习新技术\n工作方式:\n喜欢有条理\n兴趣领域:\n编程与设计\n"
	insights, err := ParseInsights(resp)
	require.NoError(t, err)
	assert.Equal(t, "总体来看用户偏好技术类工具。", insights.Overview)
	assert.Equal(t, "善于学习新技术", insights.Strengths)
	assert.Equal(t, "喜欢有条理", insights.WorkStyle)
	assert.Equal(t, "编程与设计", insights.Interests)

	_, err = ParseInsights("   ")
	assert.ErrorIs(t, err, ErrUnparsable)
}

func TestParseInsightsBodyLinesWithKeywords(t *testing.T) {
	resp := "Overview:\nA curious engineer.\n## Work style\nWorks well alone\nPrefers async work.\n**Interests**\nAI tools"
	insights, err := ParseInsights(resp)
	require.NoError(t, err)
	assert.Equal(t, "A curious engineer.", insights.Overview)
	assert.Equal(t, "Works well alone Prefers async work.", insights.WorkStyle)
	assert.Equal(t, "AI tools", insights.Interests)
	assert.Empty(t, insights.Strengths)
}

func TestParseMBTIJSON(t *testing.T) {
	resp := "```json\n" + `{"E_I":{"score":30,"tendency":"I","description":"独处"},"S_N":{"score":20},"T_F":{"score":80,"tendency":"T"},"J_P":{"score":40},"confidence":150}` + "\n```"
	mbti, err := ParseMBTI(resp)
	require.NoError(t, err)
	assert.Equal(t, "INTP", mbti.PredictedType)
	assert.Equal(t, 100, mbti.Confidence)
	assert.Equal(t, "I", mbti.EI.Tendency)
	assert.Equal(t, "独处", mbti.EI.Description)
	assert.Equal(t, "N", mbti.SN.Tendency)
	assert.Equal(t, DefaultMBTI().SN.Description, mbti.SN.Description)
	assert.Equal(t, "P", mbti.JP.Tendency)
}

func TestParseMBTIPartialJSON(t *testing.T) {
	mbti, err := ParseMBTI(`{"EI": 20, "predicted_type": "infj"}`)
	require.NoError(t, err)
	assert.Equal(t, 20, mbti.EI.Score)
	assert.Equal(t, "I", mbti.EI.Tendency)
	assert.Equal(t, DefaultMBTI().TF, mbti.TF)
	assert.Equal(t, "INFJ", mbti.PredictedType)
}

func TestParseMBTIText(t *testing.T) {
	mbti, err := ParseMBTI("E: 30\nS: 70\nT=55\nP: 80\n你的类型可能是 ISTP")
	require.NoError(t, err)
	assert.Equal(t, 30, mbti.EI.Score)
	assert.Equal(t, "I", mbti.EI.Tendency)
	assert.Equal(t, "S", mbti.SN.Tendency)
	assert.Equal(t, 20, mbti.JP.Score)
	assert.Equal(t, "P", mbti.JP.Tendency)
	assert.Equal(t, "ISTP", mbti.PredictedType)
	assert.Equal(t, 68, mbti.Confidence)
}

func TestParseMBTIUnparsable(t *testing.T) {
	mbti, err := ParseMBTI("无法判断")
	assert.ErrorIs(t, err, ErrUnparsable)
	assert.Equal(t, DefaultMBTI(), mbti)
}

func TestParseTraitsText(t *testing.T) {
	traits, err := ParseTraits("开放性: 85分 喜欢尝试新工具\n技术亲和度：90 熟练使用开发工具\n宜人性 72")
	require.NoError(t, err)
	assert.Equal(t, model.TraitScore{Score: 85, Description: "喜欢尝试新工具"}, traits.Openness)
	assert.Equal(t, model.TraitScore{Score: 90, Description: "熟练使用开发工具"}, traits.TechSavviness)
	assert.Equal(t, 72, traits.Agreeableness.Score)
	assert.Equal(t, DefaultTraits().Agreeableness.Description, traits.Agreeableness.Description)
	assert.Equal(t, DefaultTraits().Neuroticism, traits.Neuroticism)
}

func TestParseTraitsKeywordInDescription(t *testing.T) {
	traits, err := ParseTraits("Openness: 92 - enjoys exploring new technology\nConscientiousness: 30 - flexible planner")
	require.NoError(t, err)
	assert.Equal(t, model.TraitScore{Score: 92, Description: "enjoys exploring new technology"}, traits.Openness)
	assert.Equal(t, model.TraitScore{Score: 30, Description: "flexible planner"}, traits.Conscientiousness)
	assert.Equal(t, DefaultTraits().TechSavviness, traits.TechSavviness)
}

func TestParseTraitsKoreanTechBeforeAgreeableness(t *testing.T) {
	traits, err := ParseTraits("기술 친화도: 88")
	require.NoError(t, err)
	assert.Equal(t, 88, traits.TechSavviness.Score)
	assert.Equal(t, DefaultTraits().Agreeableness, traits.Agreeableness)
}

func TestParseTraitsJSON(t *testing.T) {
	traits, err := ParseTraits(`{"openness": {"score": 120, "description": "好奇"}, "neuroticism": 20}`)
	require.NoError(t, err)
	assert.Equal(t, model.TraitScore{Score: 100, Description: "好奇"}, traits.Openness)
	assert.Equal(t, 20, traits.Neuroticism.Score)
	assert.Equal(t, DefaultTraits().Neuroticism.Description, traits.Neuroticism.Description)
}

func TestParseRecommendationsJSON(t *testing.T) {
	recs, err := ParseRecommendations(`{"productivity_tools": ["A", "B"], "software_apps": "C"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, recs.ProductivityTools)
	assert.Equal(t, []string{"C"}, recs.SoftwareApps)
	assert.Equal(t, DefaultRecommendations().CareerDevelopment, recs.CareerDevelopment)
}

func TestParseRecommendationsText(t *testing.T) {
	resp := "1. 生产力工具\n- Obsidian 笔记\n- Raycast\n2. 学习资源\n- Go 官方文档\n"
	recs, err := ParseRecommendations(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"Obsidian 笔记", "Raycast"}, recs.ProductivityTools)
	assert.Equal(t, []string{"Go 官方文档"}, recs.LearningResources)
	assert.Equal(t, DefaultRecommendations().WorkStyle, recs.WorkStyle)

	recs, err = ParseRecommendations("暂无建议")
	assert.ErrorIs(t, err, ErrUnparsable)
	assert.Equal(t, DefaultRecommendations(), recs)
}

func TestParseRecommendationsNumberedItems(t *testing.T) {
	resp := "Productivity tools:\n1. Todoist app for tasks\n2. RescueTime\nLearning resources:\n1. Coursera machine learning\n2. Udemy"
	recs, err := ParseRecommendations(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"Todoist app for tasks", "RescueTime"}, recs.ProductivityTools)
	assert.Equal(t, []string{"Coursera machine learning", "Udemy"}, recs.LearningResources)
	assert.Equal(t, DefaultRecommendations().SoftwareApps, recs.SoftwareApps)
}

type fakeLLM struct {
	replies map[string]string
	errs    map[string]error
}

func (f fakeLLM) Complete(_ context.Context, system, _ string, _ int) (string, error) {
	if err := f.errs[system]; err != nil {
		return "", err
	}
	return f.replies[system], nil
}

func TestAnalyzeWithoutLLM(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	result := NewAnalyzer("zh").Analyze(context.Background(), nil, model.DataSummary{}, now)
	assert.False(t, result.AIPowered)
	assert.Equal(t, "2025-03-01T10:00:00", result.AnalysisTimestamp)
	assert.Equal(t, BasicInsights(), result.AIInsights)
}

func TestAnalyzeSectionFallback(t *testing.T) {
	llm := fakeLLM{
		replies: map[string]string{
			systemInsights: `{"overview":"o","strengths":"s","work_style":"w","interests":"i"}`,
			systemMBTI:     `{"E_I":{"score":70},"S_N":{"score":30},"T_F":{"score":60},"J_P":{"score":55}}`,
			systemTraits:   `{"creativity": {"score": 91, "description": "爱创作"}}`,
		},
		errs: map[string]error{systemRecs: errors.New("timeout")},
	}
	result := NewAnalyzer("zh").Analyze(context.Background(), llm, model.DataSummary{TotalBookmarks: 3}, time.Now())
	assert.True(t, result.AIPowered)
	assert.Equal(t, "o", result.AIInsights.Overview)
	assert.Equal(t, "ENTJ", result.MBTIAnalysis.PredictedType)
	assert.Equal(t, 91, result.PersonalityTraits.Creativity.Score)
	assert.Equal(t, DefaultRecommendations(), result.Recommendations)
}

func TestAnalyzeAllSectionsFail(t *testing.T) {
	boom := errors.New("boom")
	llm := fakeLLM{errs: map[string]error{
		systemInsights: boom, systemMBTI: boom, systemTraits: boom, systemRecs: boom,
	}}
	result := NewAnalyzer("en").Analyze(context.Background(), llm, model.DataSummary{}, time.Now())
	assert.False(t, result.AIPowered)
	assert.Equal(t, failedInsights(), result.AIInsights)
	assert.Equal(t, DefaultMBTI(), result.MBTIAnalysis)
}

func TestPromptsIncludeLanguageHint(t *testing.T) {
	summary := model.DataSummary{TopSites: []model.NameValue{{Name: "github.com", Value: 12}}}
	assert.Contains(t, insightsPrompt(summary, "ko"), "한국어")
	assert.Contains(t, insightsPrompt(summary, "fr"), "简体中文")
	assert.Contains(t, insightsPrompt(summary, "zh"), "github.com(12)")
	assert.Contains(t, mbtiPrompt(summary, "en"), `"top_sites"`)
}
