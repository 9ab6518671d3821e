package analyzer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"digital_insight_go/model"
)

// ErrUnparsable AI 回复中没有可用内容
var ErrUnparsable = errors.New("无法解析AI回复")

var (
	fencePattern    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	mbtiTypePattern = regexp.MustCompile(`\b([EI][SN][TF][JP])\b`)
	// E: 65 / E_I: 65 / I=40
	mbtiScorePattern = regexp.MustCompile(`\b([EISNTFJP])(?:\s*[/_\-]\s*[EISNTFJP])?\s*[:：=]\s*(\d{1,3})`)
	numberPattern    = regexp.MustCompile(`\d{1,3}`)
	scoreTailPattern = regexp.MustCompile(`^\s*(?:/\s*100|分|점|points?)?[\s:：,，.。\-–—)）]*`)
	bulletPrefix     = regexp.MustCompile(`^[-*•·]\s+`)
	numberPrefix     = regexp.MustCompile(`^\d+[.)、]\s*`)
	headingPrefix    = regexp.MustCompile(`^#+\s*`)
)

// lineShape 判断小节标题用的行特征
type lineShape struct {
	text     string // 去掉列表符号、加粗和结尾冒号后的文本
	style    string // bullet / number / plain
	explicit bool   // # 开头、整行加粗或以冒号结尾
}

func shapeOf(line string) lineShape {
	s := strings.TrimSpace(line)
	sh := lineShape{style: "plain"}
	switch {
	case headingPrefix.MatchString(s):
		sh.explicit = true
		s = headingPrefix.ReplaceAllString(s, "")
	case bulletPrefix.MatchString(s):
		sh.style = "bullet"
		s = bulletPrefix.ReplaceAllString(s, "")
	case numberPrefix.MatchString(s):
		sh.style = "number"
		s = numberPrefix.ReplaceAllString(s, "")
	}
	if trimmed := trimColon(s); trimmed != s {
		sh.explicit = true
		s = trimmed
	}
	if len(s) > 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") {
		sh.explicit = true
	}
	s = strings.TrimSpace(strings.Trim(s, "*"))
	if trimmed := trimColon(s); trimmed != s {
		sh.explicit = true
		s = trimmed
	}
	sh.text = s
	return sh
}

func trimColon(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, ":："))
}

// endsSentence 以句末标点结尾的是正文
func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "。") ||
		strings.HasSuffix(s, "!") || strings.HasSuffix(s, "！")
}

// ExtractJSON 去掉 markdown 代码块后提取最外层 JSON 对象
func ExtractJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if gjson.Valid(candidate) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

// firstOf 按别名依次查找字段
func firstOf(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// Clamp 分数限制在 0..100
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// ================= 综合洞察 =================

type insightSection int

const (
	sectionOverview insightSection = iota
	sectionStrengths
	sectionWorkStyle
	sectionInterests
)

var insightKeywords = []struct {
	section  insightSection
	keywords []string
}{
	{sectionStrengths, []string{"강점", "优势", "strength"}},
	{sectionWorkStyle, []string{"업무", "工作", "work"}},
	{sectionInterests, []string{"관심", "兴趣", "interest"}},
	{sectionOverview, []string{"전반", "整体", "概述", "overview"}},
}

// ParseInsights 优先按 JSON 解析，否则按小节关键字切分文本
func ParseInsights(resp string) (model.Insights, error) {
	if js, ok := ExtractJSON(resp); ok {
		obj := gjson.Parse(js)
		insights := model.Insights{
			Overview:  firstOf(obj, "overview", "summary").String(),
			Strengths: firstOf(obj, "strengths", "strength").String(),
			WorkStyle: firstOf(obj, "work_style", "workStyle").String(),
			Interests: firstOf(obj, "interests", "interest").String(),
		}
		if insights != (model.Insights{}) {
			return insights, nil
		}
	}

	var sections [4]strings.Builder
	current := sectionOverview
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s, ok := matchInsightSection(line); ok {
			current = s
			continue
		}
		sections[current].WriteString(line)
		sections[current].WriteString(" ")
	}

	insights := model.Insights{
		Overview:  strings.TrimSpace(sections[sectionOverview].String()),
		Strengths: strings.TrimSpace(sections[sectionStrengths].String()),
		WorkStyle: strings.TrimSpace(sections[sectionWorkStyle].String()),
		Interests: strings.TrimSpace(sections[sectionInterests].String()),
	}
	if insights == (model.Insights{}) {
		return insights, ErrUnparsable
	}
	return insights, nil
}

// matchInsightSection 带标题标记（#、加粗、冒号）的短行，或仅比关键字略长且不成句的行才视为小节标题
func matchInsightSection(line string) (insightSection, bool) {
	sh := shapeOf(line)
	n := len([]rune(sh.text))
	if sh.style == "bullet" || n == 0 || n > 30 {
		return 0, false
	}
	lower := strings.ToLower(sh.text)
	for _, s := range insightKeywords {
		for _, kw := range s.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			if sh.explicit || (n <= len([]rune(kw))+10 && !endsSentence(sh.text)) {
				return s.section, true
			}
		}
	}
	return 0, false
}

// ================= MBTI =================

type mbtiAxis struct {
	keys          []string
	first, second string
}

var mbtiAxes = []mbtiAxis{
	{[]string{"E_I", "EI", "E/I", "E-I", "e_i"}, "E", "I"},
	{[]string{"S_N", "SN", "S/N", "S-N", "s_n"}, "S", "N"},
	{[]string{"T_F", "TF", "T/F", "T-F", "t_f"}, "T", "F"},
	{[]string{"J_P", "JP", "J/P", "J-P", "j_p"}, "J", "P"},
}

func mbtiDims(m *model.MBTIAnalysis) []*model.MBTIDimension {
	return []*model.MBTIDimension{&m.EI, &m.SN, &m.TF, &m.JP}
}

// ParseMBTI 解析 MBTI 回复，缺失的维度使用默认值
func ParseMBTI(resp string) (model.MBTIAnalysis, error) {
	if js, ok := ExtractJSON(resp); ok {
		if result, found := parseMBTIJSON(gjson.Parse(js)); found {
			return result, nil
		}
	}
	return parseMBTIText(resp)
}

func parseMBTIJSON(obj gjson.Result) (model.MBTIAnalysis, bool) {
	result := DefaultMBTI()
	dims := mbtiDims(&result)
	found := 0

	for i, axis := range mbtiAxes {
		v := firstOf(obj, axis.keys...)
		if !v.Exists() {
			continue
		}
		dim := model.MBTIDimension{Description: dims[i].Description}
		switch {
		case v.IsObject():
			dim.Score = int(v.Get("score").Int())
			dim.Tendency = strings.ToUpper(strings.TrimSpace(v.Get("tendency").String()))
			if d := firstOf(v, "description", "reason", "evidence").String(); d != "" {
				dim.Description = d
			}
		case v.Type == gjson.Number:
			dim.Score = int(v.Int())
		default:
			continue
		}
		dim.Score = Clamp(dim.Score)
		if dim.Tendency != axis.first && dim.Tendency != axis.second {
			dim.Tendency = tendencyOf(dim.Score, axis)
		}
		*dims[i] = dim
		found++
	}
	if found == 0 {
		return result, false
	}

	result.PredictedType = strings.ToUpper(firstOf(obj, "predicted_type", "type", "mbti_type", "mbti").String())
	if !mbtiTypePattern.MatchString(result.PredictedType) || len(result.PredictedType) != 4 {
		result.PredictedType = predictType(result)
	}
	if c := firstOf(obj, "confidence"); c.Exists() {
		result.Confidence = Clamp(int(c.Int()))
	} else {
		result.Confidence = confidenceOf(result)
	}
	return result, true
}

func parseMBTIText(resp string) (model.MBTIAnalysis, error) {
	scores := make(map[string]int)
	for _, m := range mbtiScorePattern.FindAllStringSubmatch(resp, -1) {
		if _, seen := scores[m[1]]; seen {
			continue
		}
		v, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		scores[m[1]] = Clamp(v)
	}

	result := DefaultMBTI()
	dims := mbtiDims(&result)
	found := 0
	for i, axis := range mbtiAxes {
		score, ok := scores[axis.first]
		if !ok {
			other, ok2 := scores[axis.second]
			if !ok2 {
				continue
			}
			score = 100 - other
		}
		*dims[i] = model.MBTIDimension{
			Score:       score,
			Tendency:    tendencyOf(score, axis),
			Description: "根据文本回复推断",
		}
		found++
	}
	if found == 0 {
		return DefaultMBTI(), ErrUnparsable
	}

	if m := mbtiTypePattern.FindStringSubmatch(resp); m != nil {
		result.PredictedType = m[1]
	} else {
		result.PredictedType = predictType(result)
	}
	result.Confidence = confidenceOf(result)
	return result, nil
}

func tendencyOf(score int, axis mbtiAxis) string {
	if score >= 50 {
		return axis.first
	}
	return axis.second
}

func predictType(m model.MBTIAnalysis) string {
	var b strings.Builder
	for i, dim := range mbtiDims(&m) {
		t := dim.Tendency
		if t == "" {
			t = tendencyOf(dim.Score, mbtiAxes[i])
		}
		b.WriteString(t)
	}
	return b.String()
}

// confidenceOf 各维度偏离 50 的平均程度
func confidenceOf(m model.MBTIAnalysis) int {
	total := 0
	for _, dim := range mbtiDims(&m) {
		d := dim.Score - 50
		if d < 0 {
			d = -d
		}
		total += d
	}
	return Clamp(50 + total/4)
}

// ================= 性格特征 =================

type traitDef struct {
	key      string
	keywords []string
	get      func(*model.PersonalityTraits) *model.TraitScore
}

// 技术亲和度需先于宜人性匹配（기술 친화도 含 친화）
var traitDefs = []traitDef{
	{"tech_savviness", []string{"tech", "技术", "기술"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.TechSavviness }},
	{"openness", []string{"openness", "开放", "개방"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Openness }},
	{"conscientiousness", []string{"conscientiousness", "尽责", "성실"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Conscientiousness }},
	{"extraversion", []string{"extraversion", "外向", "외향"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Extraversion }},
	{"agreeableness", []string{"agreeableness", "宜人", "친화"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Agreeableness }},
	{"neuroticism", []string{"neuroticism", "神经质", "신경"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Neuroticism }},
	{"creativity", []string{"creativity", "创造", "창의"}, func(p *model.PersonalityTraits) *model.TraitScore { return &p.Creativity }},
}

// ParseTraits 解析性格特征，缺失的特征使用默认值
func ParseTraits(resp string) (model.PersonalityTraits, error) {
	if js, ok := ExtractJSON(resp); ok {
		if traits, found := parseTraitsJSON(gjson.Parse(js)); found {
			return traits, nil
		}
	}
	return parseTraitsText(resp)
}

func parseTraitsJSON(obj gjson.Result) (model.PersonalityTraits, bool) {
	traits := DefaultTraits()
	found := 0
	for _, def := range traitDefs {
		v := obj.Get(def.key)
		if !v.Exists() {
			continue
		}
		dst := def.get(&traits)
		switch {
		case v.IsObject():
			dst.Score = Clamp(int(v.Get("score").Int()))
			if d := firstOf(v, "description", "reason", "evidence").String(); d != "" {
				dst.Description = d
			}
		case v.Type == gjson.Number:
			dst.Score = Clamp(int(v.Int()))
		default:
			continue
		}
		found++
	}
	return traits, found > 0
}

// parseTraitsText 只在分数前的标签部分匹配特征关键字
func parseTraitsText(resp string) (model.PersonalityTraits, error) {
	traits := DefaultTraits()
	seen := make(map[string]bool)

	for _, line := range strings.Split(resp, "\n") {
		lower := strings.ToLower(line)
		if len(lower) != len(line) {
			line = lower
		}
		loc := numberPattern.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		label := lower[:loc[0]]
		for _, def := range traitDefs {
			if keywordIndex(label, def.keywords) < 0 {
				continue
			}
			if !seen[def.key] {
				v, _ := strconv.Atoi(lower[loc[0]:loc[1]])
				dst := def.get(&traits)
				dst.Score = Clamp(v)
				if d := strings.TrimSpace(scoreTailPattern.ReplaceAllString(line[loc[1]:], "")); d != "" {
					dst.Description = d
				}
				seen[def.key] = true
			}
			break
		}
	}

	if len(seen) == 0 {
		return traits, ErrUnparsable
	}
	return traits, nil
}

func keywordIndex(lower string, keywords []string) int {
	for _, kw := range keywords {
		if i := strings.Index(lower, kw); i >= 0 {
			return i
		}
	}
	return -1
}

// ================= 推荐 =================

type recDef struct {
	key      string
	keywords []string
	get      func(*model.Recommendations) *[]string
}

var recDefs = []recDef{
	{"productivity_tools", []string{"productivity", "生产力", "效率", "생산성"}, func(r *model.Recommendations) *[]string { return &r.ProductivityTools }},
	{"learning_resources", []string{"learning", "学习", "학습"}, func(r *model.Recommendations) *[]string { return &r.LearningResources }},
	{"career_development", []string{"career", "职业", "커리어", "경력"}, func(r *model.Recommendations) *[]string { return &r.CareerDevelopment }},
	{"work_style", []string{"work style", "work_style", "工作方式", "工作风格", "업무"}, func(r *model.Recommendations) *[]string { return &r.WorkStyle }},
	{"software_apps", []string{"software", "app", "软件", "应用", "소프트웨어"}, func(r *model.Recommendations) *[]string { return &r.SoftwareApps }},
}

// ParseRecommendations 解析推荐，空的类别使用默认推荐
func ParseRecommendations(resp string) (model.Recommendations, error) {
	var recs model.Recommendations
	found := false

	if js, ok := ExtractJSON(resp); ok {
		obj := gjson.Parse(js)
		for _, def := range recDefs {
			v := obj.Get(def.key)
			dst := def.get(&recs)
			if v.IsArray() {
				for _, item := range v.Array() {
					if s := strings.TrimSpace(item.String()); s != "" {
						*dst = append(*dst, s)
					}
				}
			} else if s := strings.TrimSpace(v.String()); s != "" {
				*dst = append(*dst, s)
			}
			if len(*dst) > 0 {
				found = true
			}
		}
	}
	if !found {
		recs, found = parseRecommendationsText(resp)
	}
	if !found {
		return DefaultRecommendations(), ErrUnparsable
	}

	defaults := DefaultRecommendations()
	for _, def := range recDefs {
		if dst := def.get(&recs); len(*dst) == 0 {
			*dst = *def.get(&defaults)
		}
	}
	return recs, nil
}

// parseRecommendationsText 按小节收集条目
// 含关键字的非圆点短行在以下情况视为标题：带标题标记、尚无当前小节、或与当前小节条目的列表样式不同
func parseRecommendationsText(resp string) (model.Recommendations, bool) {
	var recs model.Recommendations
	var current *[]string
	itemStyle := ""
	found := false

	for _, raw := range strings.Split(resp, "\n") {
		sh := shapeOf(raw)
		if sh.text == "" {
			continue
		}

		if sh.style != "bullet" && len([]rune(sh.text)) <= 30 {
			if def, ok := matchRecSection(sh.text); ok &&
				(sh.explicit || current == nil || (itemStyle != "" && itemStyle != sh.style)) {
				current = def.get(&recs)
				itemStyle = ""
				continue
			}
		}
		if current != nil {
			*current = append(*current, sh.text)
			itemStyle = sh.style
			found = true
		}
	}
	return recs, found
}

func matchRecSection(text string) (recDef, bool) {
	lower := strings.ToLower(text)
	for _, def := range recDefs {
		if keywordIndex(lower, def.keywords) >= 0 {
			return def, true
		}
	}
	return recDef{}, false
}
