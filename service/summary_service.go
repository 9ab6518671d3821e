package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
	"digital_insight_go/store"
)

const topN = 10

// SummaryService 从最新的采集文件生成统计数据
type SummaryService struct {
	fileStore *store.FileStore
}

func NewSummaryService(fileStore *store.FileStore) *SummaryService {
	return &SummaryService{fileStore: fileStore}
}

// latestRows 读取某类最新 CSV，没有文件时返回 nil
func (s *SummaryService) latestRows(kind model.Kind) ([]map[string]string, error) {
	rows, name, err := s.fileStore.ReadLatestCSV(string(kind))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取%s文件失败: %w", kind.Label(), err)
	}
	log.Debugf("使用%s文件: %s", kind.Label(), name)
	return rows, nil
}

// BuildDataSummary 生成 AI 分析用的数据摘要
func (s *SummaryService) BuildDataSummary() (model.DataSummary, error) {
	var summary model.DataSummary

	bookmarks, err := s.latestRows(model.KindBookmarks)
	if err != nil {
		return summary, err
	}
	if bookmarks != nil {
		summary.BookmarkCategories = valueCounts(bookmarks, "folder", topN)
		summary.TotalBookmarks = len(bookmarks)
	}

	history, err := s.latestRows(model.KindBrowserHistory)
	if err != nil {
		return summary, err
	}
	if history != nil {
		summary.TopSites = valueCounts(history, "domain", topN)
		summary.TotalVisits = sumColumn(history, "visit_count")
	}

	extensions, err := s.latestRows(model.KindChromeExtensions)
	if err != nil {
		return summary, err
	}
	summary.Extensions = valueCounts(extensions, "category", 0)

	programs, err := s.latestRows(model.KindInstalledPrograms)
	if err != nil {
		return summary, err
	}
	if programs != nil {
		summary.SoftwareCategories = valueCounts(programs, "category", 0)
		summary.TotalPrograms = len(programs)
	}

	recent, err := s.latestRows(model.KindRecentFiles)
	if err != nil {
		return summary, err
	}
	summary.RecentFiles = valueCounts(recent, "category", 0)

	network, err := s.latestRows(model.KindNetworkInfo)
	if err != nil {
		return summary, err
	}
	summary.NetworkStats = valueCounts(network, "category", 0)

	return summary, nil
}

// BuildAnalysisData 生成分析页面的图表数据，出错时返回示例数据
func (s *SummaryService) BuildAnalysisData() model.AnalysisData {
	data, err := s.buildAnalysisData()
	if err != nil {
		log.Errorf("分析数据生成失败，使用示例数据: %v", err)
		return SampleAnalysisData()
	}
	return data
}

func (s *SummaryService) buildAnalysisData() (model.AnalysisData, error) {
	data := model.AnalysisData{
		Bookmarks:   model.LabelCounts{Categories: []string{}, Counts: []int64{}},
		History:     model.SiteVisits{Sites: []string{}, Visits: []int64{}},
		System:      model.LabelCounts{Categories: []string{}, Counts: []int64{}},
		TimePattern: model.TimePattern{Hours: []string{}, Activities: []int64{}},
	}

	bookmarks, err := s.latestRows(model.KindBookmarks)
	if err != nil {
		return data, err
	}
	if bookmarks != nil {
		column := "folder"
		if len(bookmarks) > 0 {
			if _, ok := bookmarks[0]["category"]; ok {
				column = "category"
			}
		}
		data.Bookmarks = toLabelCounts(valueCounts(bookmarks, column, 0))
		data.Stats.BookmarkCount = len(bookmarks)
		data.Stats.Categories = len(data.Bookmarks.Categories)
	}

	history, err := s.latestRows(model.KindBrowserHistory)
	if err != nil {
		return data, err
	}
	if history != nil {
		for _, nv := range sumBy(history, "domain", "visit_count", topN) {
			data.History.Sites = append(data.History.Sites, nv.Name)
			data.History.Visits = append(data.History.Visits, nv.Value)
		}
		data.Stats.HistoryCount = len(history)
		data.Stats.TotalVisits = sumColumn(history, "visit_count")
		data.TimePattern = TimePatternOf(history)
	}

	system, err := s.latestRows(model.KindSystemInfo)
	if err != nil {
		return data, err
	}
	if system != nil {
		data.System = toLabelCounts(valueCounts(system, "category", 0))
		data.Stats.SystemCount = len(system)
	}

	if data.Stats.TotalVisits > 0 {
		data.Stats.AvgDaily = math.Round(float64(data.Stats.TotalVisits)/30*10) / 10
	}
	return data, nil
}

// TimePatternOf 按最后访问时间的小时累加访问次数，两小时一组
func TimePatternOf(history []map[string]string) model.TimePattern {
	var hourCounts [24]int64
	for _, row := range history {
		t, err := model.ParseTime(row["last_visit"])
		if err != nil {
			continue
		}
		visits := int64(1)
		if raw, ok := row["visit_count"]; ok {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			visits = v
		}
		hourCounts[t.Hour()] += visits
	}

	pattern := model.TimePattern{
		Hours:      make([]string, 0, 12),
		Activities: make([]int64, 0, 12),
	}
	for h := 0; h < 24; h += 2 {
		pattern.Hours = append(pattern.Hours, fmt.Sprintf("%02d-%02d", h, h+2))
		pattern.Activities = append(pattern.Activities, hourCounts[h]+hourCounts[h+1])
	}
	return pattern
}

// valueCounts 统计某列取值出现次数，按次数倒序（相同次数保持首次出现顺序），空值忽略
func valueCounts(rows []map[string]string, column string, limit int) []model.NameValue {
	counts := make(map[string]int64)
	var order []string
	for _, row := range rows {
		v := row[column]
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	return rankNameValues(order, counts, limit)
}

// sumBy 按 key 列分组累加 value 列
func sumBy(rows []map[string]string, key, value string, limit int) []model.NameValue {
	sums := make(map[string]int64)
	var order []string
	for _, row := range rows {
		k := row[key]
		if k == "" {
			continue
		}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		v, _ := strconv.ParseInt(row[value], 10, 64)
		sums[k] += v
	}
	return rankNameValues(order, sums, limit)
}

func sumColumn(rows []map[string]string, column string) int64 {
	var total int64
	for _, row := range rows {
		v, _ := strconv.ParseInt(row[column], 10, 64)
		total += v
	}
	return total
}

func rankNameValues(order []string, values map[string]int64, limit int) []model.NameValue {
	result := make([]model.NameValue, 0, len(order))
	for _, name := range order {
		result = append(result, model.NameValue{Name: name, Value: values[name]})
	}
	sortNameValues(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func toLabelCounts(values []model.NameValue) model.LabelCounts {
	lc := model.LabelCounts{Categories: make([]string, 0, len(values)), Counts: make([]int64, 0, len(values))}
	for _, nv := range values {
		lc.Categories = append(lc.Categories, nv.Name)
		lc.Counts = append(lc.Counts, nv.Value)
	}
	return lc
}

// SampleAnalysisData 示例图表数据
func SampleAnalysisData() model.AnalysisData {
	return model.AnalysisData{
		Bookmarks: model.LabelCounts{
			Categories: []string{"Development", "Entertainment", "Cloud", "Education", "Professional", "Shopping"},
			Counts:     []int64{6, 2, 2, 2, 2, 1},
		},
		History: model.SiteVisits{
			Sites:  []string{"Google", "YouTube", "Stack Overflow", "AWS Console", "GitHub"},
			Visits: []int64{45, 35, 25, 22, 20},
		},
		System: model.LabelCounts{
			Categories: []string{"Software", "Memory", "CPU", "Storage"},
			Counts:     []int64{4, 4, 2, 2},
		},
		TimePattern: model.TimePattern{
			Hours:      []string{"00-02", "02-04", "04-06", "06-08", "08-10", "10-12", "12-14", "14-16", "16-18", "18-20", "20-22", "22-24"},
			Activities: []int64{2, 1, 0, 3, 8, 15, 12, 25, 22, 18, 12, 6},
		},
		Stats: model.AnalysisStats{
			BookmarkCount: 15,
			HistoryCount:  18,
			SystemCount:   18,
			TotalVisits:   276,
			Categories:    6,
			AvgDaily:      9.2,
		},
	}
}

func sortNameValues(values []model.NameValue) {
	sort.SliceStable(values, func(i, j int) bool { return values[i].Value > values[j].Value })
}
