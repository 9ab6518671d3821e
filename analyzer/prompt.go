package analyzer

import (
	"encoding/json"
	"fmt"

	"digital_insight_go/model"
)

const (
	systemInsights = "你是数字行为模式分析专家。请根据用户的浏览器使用习惯、已安装程序和文件使用情况，分析其性格、工作方式和兴趣，用通俗友好的语言说明。"
	systemMBTI     = "你是 MBTI 专家。请根据数字使用模式给出准确的 MBTI 分析。"
	systemTraits   = "你是心理学专家。请通过数字行为模式准确分析性格特征。"
	systemRecs     = "你是个人效率与职业发展顾问。请根据用户的数字使用模式给出实用的建议。"
)

var languageHints = map[string]string{
	"zh": "请使用简体中文回答。",
	"ko": "한국어로 답변해 주세요.",
	"en": "Please answer in English.",
}

func languageHint(lang string) string {
	if hint, ok := languageHints[lang]; ok {
		return hint
	}
	return languageHints["zh"]
}

func summaryJSON(summary model.DataSummary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func insightsPrompt(summary model.DataSummary, lang string) string {
	return fmt.Sprintf(`请分析用户的数字使用模式。

采集到的数据:
- 书签分类: %v
- 常访问站点: %v
- 已安装程序分类: %v
- Chrome 扩展分类: %v
- 最近使用文件分类: %v
- 网络信息: %v

统计:
- 书签总数: %d
- 总访问次数: %d
- 已安装程序数: %d

请从以下方面分析:
1. 整体数字使用倾向 (overview)
2. 主要优势与特点 (strengths)
3. 工作方式与偏好 (work_style)
4. 兴趣领域与专长 (interests)

请只返回 JSON: {"overview": "...", "strengths": "...", "work_style": "...", "interests": "..."}
%s`,
		nameValues(summary.BookmarkCategories), nameValues(summary.TopSites),
		nameValues(summary.SoftwareCategories), nameValues(summary.Extensions),
		nameValues(summary.RecentFiles), nameValues(summary.NetworkStats),
		summary.TotalBookmarks, summary.TotalVisits, summary.TotalPrograms,
		languageHint(lang))
}

func mbtiPrompt(summary model.DataSummary, lang string) string {
	return fmt.Sprintf(`请根据以下用户数据分析 MBTI 倾向:

%s

对每个维度给出 0-100 的分数（分数表示偏向前一个字母的程度）和依据:
- E(外向) vs I(内向)
- S(感觉) vs N(直觉)
- T(思考) vs F(情感)
- J(判断) vs P(知觉)

请只返回 JSON:
{"E_I": {"score": 0, "tendency": "E", "description": "..."}, "S_N": {...}, "T_F": {...}, "J_P": {...}, "predicted_type": "XXXX", "confidence": 0}
%s`, summaryJSON(summary), languageHint(lang))
}

func traitsPrompt(summary model.DataSummary, lang string) string {
	return fmt.Sprintf(`请根据以下数据分析用户的性格特征:

%s

请对以下特征给出 0-100 的分数并说明依据:
- openness 开放性（对新体验的开放程度）
- conscientiousness 尽责性（有条理、有计划）
- extraversion 外向性（社交与活跃程度）
- agreeableness 宜人性（合作与信任）
- neuroticism 神经质（对压力的敏感程度）
- creativity 创造力（创造性思维与创新）
- tech_savviness 技术亲和度（接受和运用技术的能力）

请只返回 JSON: {"openness": {"score": 0, "description": "..."}, ...}
%s`, summaryJSON(summary), languageHint(lang))
}

func recommendationsPrompt(summary model.DataSummary, lang string) string {
	return fmt.Sprintf(`请根据以下用户画像生成个性化推荐:

%s

请按以下类别给出具体建议，每类 3-5 条:
1. productivity_tools 生产力工具（提升工作效率）
2. learning_resources 学习资源（提升技术与知识）
3. software_apps 软件/应用（基于当前使用习惯）
4. work_style 工作方式改进（更好的工作环境）
5. career_development 职业发展（适合性格的方向）

请只返回 JSON: {"productivity_tools": ["..."], "learning_resources": [], "software_apps": [], "work_style": [], "career_development": []}
%s`, summaryJSON(summary), languageHint(lang))
}

func nameValues(values []model.NameValue) string {
	if len(values) == 0 {
		return "无"
	}
	out := ""
	for i, nv := range values {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s(%d)", nv.Name, nv.Value)
	}
	return out
}
