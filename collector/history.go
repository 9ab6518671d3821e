package collector

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otiai10/copy"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/utils"
)

const historyQuery = `
SELECT url, title, visit_count, last_visit_time
FROM urls
WHERE last_visit_time > ?
ORDER BY last_visit_time DESC`

// HistoryCollector Chrome 浏览历史采集
type HistoryCollector struct {
	profileDir  string
	defaultDays int
}

// NewHistoryCollector 创建浏览历史采集器
func NewHistoryCollector(cfg config.CollectorConfig) *HistoryCollector {
	return &HistoryCollector{
		profileDir:  utils.ChromeProfileDir(cfg.ChromeDir),
		defaultDays: daysOrDefault(cfg.HistoryDays, 30),
	}
}

func (c *HistoryCollector) Kind() model.Kind { return model.KindBrowserHistory }

func (c *HistoryCollector) Header() []string { return model.HistoryEntry{}.CSVHeader() }

// DaysBack 实际使用的天数
func (c *HistoryCollector) DaysBack(opts model.CollectOptions) int {
	return daysOrDefault(opts.DaysBack, c.defaultDays)
}

// Collect 复制 History 数据库后查询（Chrome 运行时原文件被锁定）
func (c *HistoryCollector) Collect(ctx context.Context, opts model.CollectOptions) ([]model.Record, error) {
	src := filepath.Join(c.profileDir, "History")
	if !utils.FileExists(src) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, src)
	}

	tmpDir, err := os.MkdirTemp("", "digital-insight-history-*")
	if err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warnf("清理临时文件失败: %v", err)
		}
	}()

	dst := filepath.Join(tmpDir, "History")
	if err := copy.Copy(src, dst); err != nil {
		return nil, fmt.Errorf("复制历史数据库失败: %w", err)
	}

	cutoff := daysAgo(time.Now(), c.DaysBack(opts))
	entries, err := queryHistory(ctx, dst, cutoff)
	if err != nil {
		return nil, err
	}
	return toRecords(entries), nil
}

func queryHistory(ctx context.Context, path string, cutoff time.Time) ([]model.HistoryEntry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开历史数据库失败: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, historyQuery, toChromeTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("查询历史记录失败: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			rawURL     string
			title      sql.NullString
			visitCount int
			lastVisit  int64
		)
		if err := rows.Scan(&rawURL, &title, &visitCount, &lastVisit); err != nil {
			return nil, fmt.Errorf("读取历史记录失败: %w", err)
		}
		t := title.String
		if t == "" {
			t = "No Title"
		}
		entries = append(entries, model.HistoryEntry{
			URL:        rawURL,
			Title:      t,
			VisitCount: visitCount,
			LastVisit:  model.FormatTime(chromeTime(lastVisit)),
			Domain:     Domain(rawURL),
		})
	}
	return entries, rows.Err()
}

// Domain 提取 URL 的主机部分，无法解析时返回原值
func Domain(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	parts := strings.Split(rawURL, "/")
	if len(parts) > 2 {
		return parts[2]
	}
	return rawURL
}

// Filter 只保留 days_back 天内访问过的记录
func (c *HistoryCollector) Filter(records []model.Record, opts model.CollectOptions, now time.Time) []model.Record {
	cutoff := daysAgo(now, c.DaysBack(opts))
	filtered := make([]model.Record, 0, len(records))
	for _, r := range records {
		h, ok := r.(model.HistoryEntry)
		if !ok {
			continue
		}
		visited, err := model.ParseTime(h.LastVisit)
		if err != nil || visited.Before(cutoff) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Sample 示例浏览历史，时间相对 now
func (c *HistoryCollector) Sample(now time.Time) []model.Record {
	item := func(rawURL, title string, visits int, ago time.Duration) model.HistoryEntry {
		return model.HistoryEntry{
			URL:        rawURL,
			Title:      title,
			VisitCount: visits,
			LastVisit:  model.FormatTime(now.Add(-ago)),
			Domain:     Domain(rawURL),
		}
	}
	day := 24 * time.Hour
	return toRecords([]model.HistoryEntry{
		item("https://chat.openai.com", "ChatGPT", 45, 30*time.Minute),
		item("https://github.com/trending", "Trending repositories on GitHub", 32, time.Hour),
		item("https://stackoverflow.com/questions/tagged/python", "Python Questions - Stack Overflow", 28, 2*time.Hour),
		item("https://aws.amazon.com/console", "AWS Management Console", 18, day),
		item("https://claude.ai", "Claude AI Assistant", 22, day+3*time.Hour),
		item("https://react.dev", "React - The library for web and native user interfaces", 15, day+6*time.Hour),
		item("https://python.org/downloads", "Python Downloads", 12, 3*day),
		item("https://tailwindcss.com/docs", "Tailwind CSS Documentation", 19, 4*day),
		item("https://vercel.com/dashboard", "Vercel Dashboard", 8, 5*day),
		item("https://youtube.com/watch?v=dQw4w9WgXcQ", "Programming Tutorial - YouTube", 25, 7*day),
		item("https://developer.mozilla.org/en-US/docs/Web/JavaScript", "JavaScript | MDN", 16, 10*day),
		item("https://coursera.org/browse/computer-science", "Computer Science Courses - Coursera", 11, 12*day),
		item("https://udemy.com/topic/python", "Python Courses - Udemy", 9, 20*day),
		item("https://netflix.com/browse", "Netflix Korea - Watch TV Shows Online", 35, 25*day),
		item("https://amazon.com/dp/B08XXBP1L9", "Programming Books - Amazon", 6, 30*day),
		item("https://linkedin.com/in/profile", "LinkedIn Profile", 14, 45*day),
		item("https://medium.com/@developer/ai-trends-2025", "AI Trends 2025 - Medium", 7, 60*day),
		item("https://reddit.com/r/programming", "r/programming - Reddit", 29, 75*day),
	})
}
