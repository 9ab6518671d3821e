package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital_insight_go/analyzer"
	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/store"
)

func sampleData() model.AnalysisData {
	return model.AnalysisData{
		Bookmarks:   model.LabelCounts{Categories: []string{"Development"}, Counts: []int64{6}},
		History:     model.SiteVisits{Sites: []string{"github.com"}, Visits: []int64{20}},
		System:      model.LabelCounts{Categories: []string{"CPU"}, Counts: []int64{2}},
		TimePattern: model.TimePattern{Hours: []string{"00-02"}, Activities: []int64{3}},
		Stats:       model.AnalysisStats{BookmarkCount: 6, HistoryCount: 1, TotalVisits: 20, AvgDaily: 0.7},
	}
}

func TestRenderWithoutAI(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.Local)
	require.NoError(t, Render(&buf, NewData(sampleData(), nil, now)))

	html := buf.String()
	assert.Contains(t, html, "2025年05月06日 07:08:09")
	assert.Contains(t, html, `"sites":["github.com"]`)
	assert.Contains(t, html, "0.7")
	assert.Contains(t, html, "日均访问")
	assert.NotContains(t, html, "综合洞察")
}

func TestRenderOmitsZeroAvgDaily(t *testing.T) {
	data := sampleData()
	data.Stats.AvgDaily = 0

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewData(data, nil, time.Now())))

	html := buf.String()
	assert.NotContains(t, html, "日均访问")
	assert.NotContains(t, html, "avg_daily")
	assert.Contains(t, html, "总访问次数")
}

func TestRenderWithAI(t *testing.T) {
	result := analyzer.BasicAnalysis("2025-05-06T07:08:09")
	result.AIInsights.Overview = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewData(sampleData(), &result, time.Now())))

	html := buf.String()
	assert.Contains(t, html, "ESTJ")
	assert.Contains(t, html, "技术亲和度")
	assert.Contains(t, html, "Notion - 一体化工作空间")
	assert.Contains(t, html, "基础分析")
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestSaveHTMLAndExportValidation(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)
	gen := NewGenerator(fs, config.ReportConfig{})

	name, err := gen.SaveHTML(NewData(sampleData(), nil, time.Now()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, Prefix+"_"))
	assert.True(t, strings.HasSuffix(name, ".html"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "chart.js")

	_, err = gen.ExportPDF(context.Background(), "bookmarks_20250101_000000.csv")
	assert.Error(t, err)

	_, err = gen.ExportPDF(context.Background(), "analysis_report_19990101_000000.html")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
