package model

// NameValue 名称-数量对
type NameValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// DataSummary 交给 AI 分析的数据摘要
type DataSummary struct {
	BookmarkCategories []NameValue `json:"bookmark_categories"`
	TopSites           []NameValue `json:"top_sites"`
	SoftwareCategories []NameValue `json:"software_categories"`
	Extensions         []NameValue `json:"extensions"`
	RecentFiles        []NameValue `json:"recent_files"`
	NetworkStats       []NameValue `json:"network_stats"`
	TotalBookmarks     int         `json:"total_bookmarks"`
	TotalVisits        int64       `json:"total_visits"`
	TotalPrograms      int         `json:"total_programs"`
}

// IsEmpty 是否没有任何已采集数据
func (s DataSummary) IsEmpty() bool {
	return len(s.BookmarkCategories) == 0 && len(s.TopSites) == 0 &&
		len(s.SoftwareCategories) == 0 && len(s.Extensions) == 0 &&
		len(s.RecentFiles) == 0 && len(s.NetworkStats) == 0 &&
		s.TotalBookmarks == 0 && s.TotalVisits == 0 && s.TotalPrograms == 0
}

// Insights AI 综合洞察
type Insights struct {
	Overview  string `json:"overview"`
	Strengths string `json:"strengths"`
	WorkStyle string `json:"work_style"`
	Interests string `json:"interests"`
}

// MBTIDimension MBTI 单一维度
type MBTIDimension struct {
	Score       int    `json:"score"`
	Tendency    string `json:"tendency"`
	Description string `json:"description"`
}

// MBTIAnalysis MBTI 分析结果
type MBTIAnalysis struct {
	EI            MBTIDimension `json:"E_I"`
	SN            MBTIDimension `json:"S_N"`
	TF            MBTIDimension `json:"T_F"`
	JP            MBTIDimension `json:"J_P"`
	PredictedType string        `json:"predicted_type"`
	Confidence    int           `json:"confidence"`
}

// TraitScore 性格特征评分
type TraitScore struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// PersonalityTraits 性格特征（大五人格 + 创造力 + 技术亲和度）
type PersonalityTraits struct {
	Openness          TraitScore `json:"openness"`
	Conscientiousness TraitScore `json:"conscientiousness"`
	Extraversion      TraitScore `json:"extraversion"`
	Agreeableness     TraitScore `json:"agreeableness"`
	Neuroticism       TraitScore `json:"neuroticism"`
	Creativity        TraitScore `json:"creativity"`
	TechSavviness     TraitScore `json:"tech_savviness"`
}

// Recommendations 个性化推荐
type Recommendations struct {
	ProductivityTools []string `json:"productivity_tools"`
	LearningResources []string `json:"learning_resources"`
	SoftwareApps      []string `json:"software_apps"`
	WorkStyle         []string `json:"work_style"`
	CareerDevelopment []string `json:"career_development"`
}

// AnalysisResult AI 性格分析结果
type AnalysisResult struct {
	AIInsights        Insights          `json:"ai_insights"`
	MBTIAnalysis      MBTIAnalysis      `json:"mbti_analysis"`
	PersonalityTraits PersonalityTraits `json:"personality_traits"`
	Recommendations   Recommendations   `json:"recommendations"`
	AnalysisTimestamp string            `json:"analysis_timestamp"`
	AIPowered         bool              `json:"ai_powered"`
}

// LabelCounts 图表用的标签/数量序列
type LabelCounts struct {
	Categories []string `json:"categories"`
	Counts     []int64  `json:"counts"`
}

// SiteVisits 站点访问量序列
type SiteVisits struct {
	Sites  []string `json:"sites"`
	Visits []int64  `json:"visits"`
}

// TimePattern 两小时粒度的活跃度
type TimePattern struct {
	Hours      []string `json:"hours"`
	Activities []int64  `json:"activities"`
}

// AnalysisStats 汇总统计
type AnalysisStats struct {
	BookmarkCount int     `json:"bookmark_count"`
	HistoryCount  int     `json:"history_count"`
	SystemCount   int     `json:"system_count"`
	TotalVisits   int64   `json:"total_visits"`
	Categories    int     `json:"categories"`
	AvgDaily      float64 `json:"avg_daily,omitempty"`
}

// AnalysisData 分析页面图表数据
type AnalysisData struct {
	Bookmarks   LabelCounts   `json:"bookmarks"`
	History     SiteVisits    `json:"history"`
	System      LabelCounts   `json:"system"`
	TimePattern TimePattern   `json:"timePattern"`
	Stats       AnalysisStats `json:"stats"`
}
