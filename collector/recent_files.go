package collector

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/utils"
)

// RecentFilesCollector 最近使用文件采集
// Windows 默认读取 Recent 目录中的 .lnk 快捷方式，其他平台需配置 recent_dir
type RecentFilesCollector struct {
	dir         string
	pattern     string
	limit       int
	defaultDays int
}

// NewRecentFilesCollector 创建最近文件采集器
func NewRecentFilesCollector(cfg config.CollectorConfig) *RecentFilesCollector {
	dir := utils.ExpandHome(cfg.RecentDir)
	if dir == "" && runtime.GOOS == "windows" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = utils.WindowsRecentDir(home)
		}
	}
	pattern := cfg.RecentPattern
	if pattern == "" {
		pattern = "*.lnk"
	}
	limit := cfg.RecentLimit
	if limit <= 0 {
		limit = 30
	}
	return &RecentFilesCollector{
		dir:         dir,
		pattern:     pattern,
		limit:       limit,
		defaultDays: daysOrDefault(cfg.RecentDays, 7),
	}
}

func (c *RecentFilesCollector) Kind() model.Kind { return model.KindRecentFiles }

func (c *RecentFilesCollector) Header() []string { return model.RecentFile{}.CSVHeader() }

// DaysBack 实际使用的天数
func (c *RecentFilesCollector) DaysBack(opts model.CollectOptions) int {
	return daysOrDefault(opts.DaysBack, c.defaultDays)
}

// Collect 按修改时间过滤、倒序、截取前 limit 个
func (c *RecentFilesCollector) Collect(ctx context.Context, opts model.CollectOptions) ([]model.Record, error) {
	if c.dir == "" {
		return nil, fmt.Errorf("%w: 未配置最近文件目录", ErrUnavailable)
	}
	if !utils.DirExists(c.dir) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, c.dir)
	}

	matches, err := doublestar.Glob(os.DirFS(c.dir), c.pattern)
	if err != nil {
		return nil, fmt.Errorf("匹配最近文件失败: %w", err)
	}

	cutoff := daysAgo(time.Now(), c.DaysBack(opts))
	var files []model.RecentFile
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full := filepath.Join(c.dir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() || info.ModTime().Before(cutoff) {
			continue
		}
		name := strings.TrimSuffix(path.Base(rel), ".lnk")
		files = append(files, model.RecentFile{
			Name:      name,
			LinkPath:  full,
			Extension: filepath.Ext(name),
			Modified:  model.FormatTime(info.ModTime()),
			Category:  CategorizeFile(name),
		})
	}

	sortByTimeDesc(files, func(f model.RecentFile) string { return f.Modified })
	if len(files) > c.limit {
		files = files[:c.limit]
	}
	return toRecords(files), nil
}

// Sample 示例最近文件，时间相对 now
func (c *RecentFilesCollector) Sample(now time.Time) []model.Record {
	item := func(name, category string, ago time.Duration) model.RecentFile {
		return model.RecentFile{
			Name:      name,
			Extension: filepath.Ext(name),
			Modified:  model.FormatTime(now.Add(-ago)),
			Category:  category,
		}
	}
	day := 24 * time.Hour
	return toRecords([]model.RecentFile{
		item("project_report.docx", "document", 2*time.Hour),
		item("presentation.pptx", "document", 5*time.Hour),
		item("data_analysis.xlsx", "document", day),
		item("main.py", "code", day+3*time.Hour),
		item("budget.pdf", "document", 2*day),
		item("vacation_photo.jpg", "image", 3*day),
		item("config.json", "code", 4*day),
		item("tutorial_video.mp4", "media", 5*day),
		item("meeting_notes.txt", "document", 6*day),
		item("style.css", "code", 7*day),
	})
}
