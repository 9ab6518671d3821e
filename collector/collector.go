package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"digital_insight_go/config"
	"digital_insight_go/model"
)

var (
	// ErrUnavailable 本机没有对应的数据源（未安装 Chrome、非 Windows 等）
	ErrUnavailable = errors.New("数据源不可用")
	// ErrUnsupported 当前平台不支持
	ErrUnsupported = errors.New("当前平台不支持")
)

// Collector 单类数据采集器
type Collector interface {
	Kind() model.Kind
	Header() []string
	// Collect 采集真实数据
	Collect(ctx context.Context, opts model.CollectOptions) ([]model.Record, error)
	// Sample 示例数据
	Sample(now time.Time) []model.Record
}

// Filterer 采集后按参数再过滤（示例数据同样适用）
type Filterer interface {
	Filter(records []model.Record, opts model.CollectOptions, now time.Time) []model.Record
}

// Registry 采集器注册表
type Registry struct {
	collectors map[model.Kind]Collector
}

// NewRegistry 按配置创建全部采集器
func NewRegistry(cfg config.CollectorConfig) *Registry {
	r := &Registry{collectors: make(map[model.Kind]Collector)}
	r.Register(NewBookmarkCollector(cfg))
	r.Register(NewHistoryCollector(cfg))
	r.Register(NewSystemInfoCollector())
	r.Register(NewExtensionCollector(cfg))
	r.Register(NewRecentFilesCollector(cfg))
	r.Register(NewNetworkCollector())
	r.Register(NewProgramCollector())
	return r
}

// Register 注册或替换采集器
func (r *Registry) Register(c Collector) {
	r.collectors[c.Kind()] = c
}

// Get 获取采集器
func (r *Registry) Get(kind model.Kind) (Collector, bool) {
	c, ok := r.collectors[kind]
	return c, ok
}

// Kinds 已注册的采集类型，按页面顺序
func (r *Registry) Kinds() []model.Kind {
	kinds := make([]model.Kind, 0, len(r.collectors))
	for _, k := range model.AllKinds {
		if _, ok := r.collectors[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// daysOrDefault 未指定天数时使用默认值
func daysOrDefault(days, def int) int {
	if days > 0 {
		return days
	}
	return def
}

// daysAgo 截止时间，精度与记录时间一致（秒）
func daysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Second)
}

// sortByTimeDesc 按时间字段倒序，解析失败的排在最后
func sortByTimeDesc[T any](items []T, ts func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, erri := model.ParseTime(ts(items[i]))
		tj, errj := model.ParseTime(ts(items[j]))
		if erri != nil || errj != nil {
			return erri == nil
		}
		return ti.After(tj)
	})
}

func toRecords[T model.Record](items []T) []model.Record {
	records := make([]model.Record, len(items))
	for i, item := range items {
		records[i] = item
	}
	return records
}
