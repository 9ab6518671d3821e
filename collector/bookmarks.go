package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/utils"
)

// 只采集书签栏和其他书签
var bookmarkRoots = []string{"bookmark_bar", "other"}

// BookmarkCollector Chrome 书签采集
type BookmarkCollector struct {
	profileDir string
}

// NewBookmarkCollector 创建书签采集器
func NewBookmarkCollector(cfg config.CollectorConfig) *BookmarkCollector {
	return &BookmarkCollector{profileDir: utils.ChromeProfileDir(cfg.ChromeDir)}
}

func (c *BookmarkCollector) Kind() model.Kind { return model.KindBookmarks }

func (c *BookmarkCollector) Header() []string { return model.Bookmark{}.CSVHeader() }

// Collect 解析 Bookmarks 文件
func (c *BookmarkCollector) Collect(ctx context.Context, opts model.CollectOptions) ([]model.Record, error) {
	path := filepath.Join(c.profileDir, "Bookmarks")
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取书签文件失败: %w", err)
	}
	bookmarks, err := ParseBookmarks(data, opts.IncludeFoldersOrDefault())
	if err != nil {
		return nil, err
	}
	log.Debugf("解析书签 %d 条", len(bookmarks))
	return toRecords(bookmarks), nil
}

// ParseBookmarks 解析 Chrome Bookmarks JSON
// includeFolders 为 false 时不进入子文件夹
func ParseBookmarks(data []byte, includeFolders bool) ([]model.Bookmark, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("书签文件格式错误")
	}

	roots := gjson.GetBytes(data, "roots")
	var bookmarks []model.Bookmark
	for _, root := range bookmarkRoots {
		node := roots.Get(root)
		if !node.Exists() {
			continue
		}
		bookmarks = walkBookmarkFolder(node, root, includeFolders, bookmarks)
	}
	return bookmarks, nil
}

func walkBookmarkFolder(folder gjson.Result, path string, includeFolders bool, out []model.Bookmark) []model.Bookmark {
	folder.Get("children").ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "folder":
			if includeFolders {
				out = walkBookmarkFolder(item, path+"/"+item.Get("name").String(), includeFolders, out)
			}
		case "url":
			out = append(out, model.Bookmark{
				Title:     item.Get("name").String(),
				URL:       item.Get("url").String(),
				Folder:    path,
				DateAdded: model.FormatTime(parseChromeTimestamp(item.Get("date_added").String())),
			})
		}
		return true
	})
	return out
}

func parseChromeTimestamp(s string) time.Time {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return chromeTime(0)
	}
	return chromeTime(v)
}

// Filter 按添加日期过滤，结束日期当天包含在内
func (c *BookmarkCollector) Filter(records []model.Record, opts model.CollectOptions, _ time.Time) []model.Record {
	start, end, ok := dateRange(opts)
	if !ok {
		return records
	}

	filtered := make([]model.Record, 0, len(records))
	for _, r := range records {
		b, isBookmark := r.(model.Bookmark)
		if !isBookmark {
			continue
		}
		added, err := model.ParseTime(b.DateAdded)
		if err != nil {
			continue
		}
		if !start.IsZero() && added.Before(start) {
			continue
		}
		if !end.IsZero() && !added.Before(end) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// dateRange 解析起止日期，end 返回次日零点
func dateRange(opts model.CollectOptions) (start, end time.Time, ok bool) {
	if opts.StartDate != "" {
		if t, err := time.ParseInLocation(model.DateLayout, opts.StartDate, time.Local); err == nil {
			start = t
		} else {
			log.Warnf("开始日期格式错误，忽略: %s", opts.StartDate)
		}
	}
	if opts.EndDate != "" {
		if t, err := time.ParseInLocation(model.DateLayout, opts.EndDate, time.Local); err == nil {
			end = t.AddDate(0, 0, 1)
		} else {
			log.Warnf("结束日期格式错误，忽略: %s", opts.EndDate)
		}
	}
	return start, end, !start.IsZero() || !end.IsZero()
}

// Sample 示例书签（2025 年上半年）
func (c *BookmarkCollector) Sample(_ time.Time) []model.Record {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	item := func(title, url, folder string, day int) model.Bookmark {
		return model.Bookmark{Title: title, URL: url, Folder: folder, DateAdded: model.FormatTime(base.AddDate(0, 0, day))}
	}
	return toRecords([]model.Bookmark{
		item("ChatGPT", "https://chat.openai.com", "AI Tools", 5),
		item("Claude AI", "https://claude.ai", "AI Tools", 10),
		item("GitHub Copilot", "https://github.com/features/copilot", "Development", 15),
		item("AWS Console", "https://aws.amazon.com/console", "Cloud", 35),
		item("Vercel Dashboard", "https://vercel.com/dashboard", "Cloud", 42),
		item("Python.org", "https://python.org", "Development", 48),
		item("React Docs", "https://react.dev", "Development", 65),
		item("Tailwind CSS", "https://tailwindcss.com", "Development", 72),
		item("MDN Web Docs", "https://developer.mozilla.org", "Development", 78),
		item("Stack Overflow", "https://stackoverflow.com", "Development", 95),
		item("Coursera", "https://coursera.org", "Education", 102),
		item("Udemy", "https://udemy.com", "Education", 108),
		item("YouTube", "https://youtube.com", "Entertainment", 125),
		item("Netflix", "https://netflix.com", "Entertainment", 132),
		item("Amazon", "https://amazon.com", "Shopping", 138),
	})
}
