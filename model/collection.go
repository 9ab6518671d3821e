package model

// Kind 采集类型，同时作为 CSV 文件名前缀
type Kind string

const (
	KindBookmarks         Kind = "bookmarks"
	KindBrowserHistory    Kind = "browser_history"
	KindSystemInfo        Kind = "system_info"
	KindChromeExtensions  Kind = "chrome_extensions"
	KindRecentFiles       Kind = "recent_files"
	KindNetworkInfo       Kind = "network_info"
	KindInstalledPrograms Kind = "installed_programs"
)

// AllKinds 全部采集类型（按页面展示顺序）
var AllKinds = []Kind{
	KindBookmarks,
	KindBrowserHistory,
	KindSystemInfo,
	KindChromeExtensions,
	KindRecentFiles,
	KindNetworkInfo,
	KindInstalledPrograms,
}

// ParseKind 校验采集类型
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Label 中文名称
func (k Kind) Label() string {
	switch k {
	case KindBookmarks:
		return "书签"
	case KindBrowserHistory:
		return "浏览历史"
	case KindSystemInfo:
		return "系统信息"
	case KindChromeExtensions:
		return "Chrome 扩展程序"
	case KindRecentFiles:
		return "最近使用的文件"
	case KindNetworkInfo:
		return "网络信息"
	case KindInstalledPrograms:
		return "已安装程序"
	default:
		return string(k)
	}
}

// DataSource 数据来源
type DataSource string

const (
	SourceReal           DataSource = "real"
	SourceSampleFallback DataSource = "sample_fallback"
	SourceSampleCloud    DataSource = "sample_cloud"
)

// Label 数据来源说明
func (s DataSource) Label() string {
	switch s {
	case SourceReal:
		return "真实数据"
	case SourceSampleFallback:
		return "示例数据（实际采集失败）"
	case SourceSampleCloud:
		return "示例数据（云端环境）"
	default:
		return string(s)
	}
}

// IsSample 是否为示例数据
func (s DataSource) IsSample() bool {
	return s != SourceReal
}

// CollectOptions 采集参数
type CollectOptions struct {
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	IncludeFolders *bool  `json:"include_folders,omitempty"`
	DaysBack       int    `json:"days_back,omitempty"`
}

// IncludeFoldersOrDefault 默认递归子文件夹
func (o CollectOptions) IncludeFoldersOrDefault() bool {
	if o.IncludeFolders == nil {
		return true
	}
	return *o.IncludeFolders
}

// CollectResult 单次采集结果
type CollectResult struct {
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	Kind        Kind       `json:"kind"`
	Filename    string     `json:"filename"`
	DataPreview []Record   `json:"data_preview"`
	DataSource  string     `json:"data_source"`
	Source      DataSource `json:"source"`
	TotalCount  int        `json:"total_count"`
}
