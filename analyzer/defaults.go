package analyzer

import "digital_insight_go/model"

// BasicInsights 未启用 AI 时的基础洞察
func BasicInsights() model.Insights {
	return model.Insights{
		Overview:  "已根据采集到的数据完成基础分析。",
		Strengths: "善于使用多种数字工具。",
		WorkStyle: "偏好有条理、高效率的工作方式。",
		Interests: "对技术和效率提升有较多关注。",
	}
}

// failedInsights AI 洞察生成失败
func failedInsights() model.Insights {
	return model.Insights{
		Overview:  "数据分析过程中发生错误。",
		Strengths: "无法分析",
		WorkStyle: "无法分析",
		Interests: "无法分析",
	}
}

// DefaultMBTI 基础 MBTI 结果
func DefaultMBTI() model.MBTIAnalysis {
	return model.MBTIAnalysis{
		EI:            model.MBTIDimension{Score: 60, Tendency: "E", Description: "基于社交类工具使用情况"},
		SN:            model.MBTIDimension{Score: 45, Tendency: "S", Description: "偏好实用型工具"},
		TF:            model.MBTIDimension{Score: 65, Tendency: "T", Description: "逻辑型工具使用较多"},
		JP:            model.MBTIDimension{Score: 55, Tendency: "J", Description: "文件管理较有条理"},
		PredictedType: "ESTJ",
		Confidence:    60,
	}
}

// DefaultTraits 基础性格特征
func DefaultTraits() model.PersonalityTraits {
	return model.PersonalityTraits{
		Openness:          model.TraitScore{Score: 70, Description: "使用多样的工具和技术"},
		Conscientiousness: model.TraitScore{Score: 65, Description: "文件管理较有条理"},
		Extraversion:      model.TraitScore{Score: 60, Description: "协作工具使用情况"},
		Agreeableness:     model.TraitScore{Score: 70, Description: "善用沟通工具"},
		Neuroticism:       model.TraitScore{Score: 40, Description: "使用模式稳定"},
		Creativity:        model.TraitScore{Score: 75, Description: "使用创作类工具"},
		TechSavviness:     model.TraitScore{Score: 80, Description: "熟练使用高级技术工具"},
	}
}

// DefaultRecommendations 基础推荐
func DefaultRecommendations() model.Recommendations {
	return model.Recommendations{
		ProductivityTools: []string{"Notion - 一体化工作空间", "Todoist - 任务管理", "RescueTime - 时间追踪"},
		LearningResources: []string{"Coursera - 在线课程", "Udemy - 技术培训", "LinkedIn Learning - 职业技能"},
		SoftwareApps:      []string{"VS Code - 代码编辑器", "Figma - 设计工具", "Slack - 团队沟通"},
		WorkStyle:         []string{"尝试番茄工作法", "养成定期备份的习惯", "学习常用快捷键"},
		CareerDevelopment: []string{"撰写技术博客", "参与开源项目", "建立在线作品集"},
	}
}

// BasicAnalysis 未启用 AI 时的完整结果
func BasicAnalysis(timestamp string) model.AnalysisResult {
	return model.AnalysisResult{
		AIInsights:        BasicInsights(),
		MBTIAnalysis:      DefaultMBTI(),
		PersonalityTraits: DefaultTraits(),
		Recommendations:   DefaultRecommendations(),
		AnalysisTimestamp: timestamp,
		AIPowered:         false,
	}
}
