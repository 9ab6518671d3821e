package model

import (
	"strconv"
	"strings"
	"time"
)

// TimeLayout 记录中时间字段的统一格式（不带时区）
const TimeLayout = "2006-01-02T15:04:05"

// DateLayout 日期过滤参数格式
const DateLayout = "2006-01-02"

// Record 可写入 CSV 的采集记录
type Record interface {
	CSVHeader() []string
	CSVRow() []string
}

// FormatTime 格式化为记录时间
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseTime 解析记录时间，兼容带时区和带小数秒的格式
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		TimeLayout,
		"2006-01-02T15:04:05.999999999",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		DateLayout,
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Bookmark Chrome 书签
type Bookmark struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Folder    string `json:"folder"`
	DateAdded string `json:"date_added"`
}

func (Bookmark) CSVHeader() []string {
	return []string{"title", "url", "folder", "date_added"}
}

func (b Bookmark) CSVRow() []string {
	return []string{b.Title, b.URL, b.Folder, b.DateAdded}
}

// HistoryEntry 浏览历史
type HistoryEntry struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	VisitCount int    `json:"visit_count"`
	LastVisit  string `json:"last_visit"`
	Domain     string `json:"domain"`
}

func (HistoryEntry) CSVHeader() []string {
	return []string{"url", "title", "visit_count", "last_visit", "domain"}
}

func (h HistoryEntry) CSVRow() []string {
	return []string{h.URL, h.Title, strconv.Itoa(h.VisitCount), h.LastVisit, h.Domain}
}

// Extension Chrome 扩展程序
type Extension struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Category    string   `json:"category"`
}

func (Extension) CSVHeader() []string {
	return []string{"id", "name", "version", "description", "permissions", "category"}
}

func (e Extension) CSVRow() []string {
	return []string{e.ID, e.Name, e.Version, e.Description, strings.Join(e.Permissions, ";"), e.Category}
}

// InstalledProgram 已安装程序
type InstalledProgram struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Publisher   string `json:"publisher"`
	InstallDate string `json:"install_date"`
	Category    string `json:"category"`
}

func (InstalledProgram) CSVHeader() []string {
	return []string{"name", "version", "publisher", "install_date", "category"}
}

func (p InstalledProgram) CSVRow() []string {
	return []string{p.Name, p.Version, p.Publisher, p.InstallDate, p.Category}
}

// SystemInfoItem 系统信息条目
type SystemInfoItem struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Details  string `json:"details"`
}

func (SystemInfoItem) CSVHeader() []string {
	return []string{"category", "name", "value", "details"}
}

func (s SystemInfoItem) CSVRow() []string {
	return []string{s.Category, s.Name, s.Value, s.Details}
}

// RecentFile 最近使用的文件
type RecentFile struct {
	Name      string `json:"name"`
	LinkPath  string `json:"link_path,omitempty"`
	Extension string `json:"extension"`
	Modified  string `json:"modified"`
	Category  string `json:"category"`
}

func (RecentFile) CSVHeader() []string {
	return []string{"name", "link_path", "extension", "modified", "category"}
}

func (r RecentFile) CSVRow() []string {
	return []string{r.Name, r.LinkPath, r.Extension, r.Modified, r.Category}
}

// NetworkInfoItem 网络信息条目
// 接口类条目填充 Interface 等字段，统计类条目填充 Name/Value/Details
type NetworkInfoItem struct {
	Interface string `json:"interface,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Netmask   string `json:"netmask,omitempty"`
	Family    string `json:"family,omitempty"`
	IsUp      *bool  `json:"is_up,omitempty"`
	Speed     *int   `json:"speed,omitempty"`
	MTU       *int   `json:"mtu,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
	Details   string `json:"details,omitempty"`
	Category  string `json:"category"`
}

func (NetworkInfoItem) CSVHeader() []string {
	return []string{"interface", "ip_address", "netmask", "family", "is_up", "speed", "mtu", "name", "value", "details", "category"}
}

func (n NetworkInfoItem) CSVRow() []string {
	isUp, speed, mtu := "", "", ""
	if n.IsUp != nil {
		isUp = strconv.FormatBool(*n.IsUp)
	}
	if n.Speed != nil {
		speed = strconv.Itoa(*n.Speed)
	}
	if n.MTU != nil {
		mtu = strconv.Itoa(*n.MTU)
	}
	return []string{n.Interface, n.IPAddress, n.Netmask, n.Family, isUp, speed, mtu, n.Name, n.Value, n.Details, n.Category}
}
