package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"digital_insight_go/collector"
	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/repository"
	"digital_insight_go/store"
	"digital_insight_go/utils"
)

// 预览条数
const previewSize = 5

// CollectorService 采集服务：本地采集真实数据，云端或失败时使用示例数据
type CollectorService struct {
	registry    *collector.Registry
	fileStore   *store.FileStore
	runRepo     repository.CollectionRunRepository
	forceSample bool
	isCloud     func() bool
	now         func() time.Time
}

func NewCollectorService(
	registry *collector.Registry,
	fileStore *store.FileStore,
	runRepo repository.CollectionRunRepository,
	cfg config.CollectorConfig,
) *CollectorService {
	return &CollectorService{
		registry:    registry,
		fileStore:   fileStore,
		runRepo:     runRepo,
		forceSample: cfg.ForceSample,
		isCloud:     utils.IsCloudEnvironment,
		now:         time.Now,
	}
}

// SampleMode 当前是否只能使用示例数据
func (s *CollectorService) SampleMode() bool {
	return s.forceSample || s.isCloud()
}

// Collect 采集一类数据并保存为 CSV
func (s *CollectorService) Collect(ctx context.Context, sessionID string, kind model.Kind, opts model.CollectOptions) (*model.CollectResult, error) {
	c, ok := s.registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("未知的采集类型: %s", kind)
	}

	start := s.now()
	records, source := s.gather(ctx, c, opts)
	if f, ok := c.(collector.Filterer); ok {
		records = f.Filter(records, opts, start)
	}

	run := &model.CollectionRunEntity{
		SessionID: sessionID,
		Kind:      string(kind),
		Source:    string(source),
		CreatedAt: start,
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.CSVRow()
	}
	filename, err := s.fileStore.SaveCSV(string(kind), c.Header(), rows)
	if err != nil {
		run.Status = model.RunStatusError
		run.ErrorMsg = err.Error()
		run.DurationMs = time.Since(start).Milliseconds()
		s.saveRun(run)
		return nil, fmt.Errorf("保存%s失败: %w", kind.Label(), err)
	}

	run.Status = model.RunStatusSuccess
	run.TotalCount = len(records)
	run.Filename = filename
	run.DurationMs = time.Since(start).Milliseconds()
	s.saveRun(run)

	preview := records
	if len(preview) > previewSize {
		preview = preview[:previewSize]
	}
	log.Infof("%s采集完成: %d 条，来源: %s，文件: %s", kind.Label(), len(records), source, filename)

	return &model.CollectResult{
		Status:      "success",
		Message:     collectMessage(c, kind, opts, len(records), source),
		Kind:        kind,
		Filename:    filename,
		DataPreview: preview,
		DataSource:  source.Label(),
		Source:      source,
		TotalCount:  len(records),
	}, nil
}

// gather 按环境选择真实数据或示例数据
func (s *CollectorService) gather(ctx context.Context, c collector.Collector, opts model.CollectOptions) ([]model.Record, model.DataSource) {
	if s.SampleMode() {
		return c.Sample(s.now()), model.SourceSampleCloud
	}

	records, err := c.Collect(ctx, opts)
	if err != nil {
		if errors.Is(err, collector.ErrUnavailable) || errors.Is(err, collector.ErrUnsupported) {
			log.Warnf("%s数据源不可用，使用示例数据: %v", c.Kind().Label(), err)
		} else {
			log.Errorf("%s采集失败，使用示例数据: %v", c.Kind().Label(), err)
		}
		return c.Sample(s.now()), model.SourceSampleFallback
	}
	return records, model.SourceReal
}

func (s *CollectorService) saveRun(run *model.CollectionRunEntity) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Save(run); err != nil {
		log.Warnf("保存采集记录失败: %v", err)
	}
}

// RecentRuns 最近的采集记录，kind 为空时不区分类型
func (s *CollectorService) RecentRuns(kind model.Kind, limit int) ([]*model.CollectionRunEntity, error) {
	if s.runRepo == nil {
		return nil, nil
	}
	if kind != "" {
		return s.runRepo.FindByKind(string(kind), limit)
	}
	return s.runRepo.FindRecent(limit)
}

// RunStats 各类型采集次数
func (s *CollectorService) RunStats() ([]model.NameValue, error) {
	if s.runRepo == nil {
		return nil, nil
	}
	return s.runRepo.CountByKind()
}

type daysBacker interface {
	DaysBack(opts model.CollectOptions) int
}

func collectMessage(c collector.Collector, kind model.Kind, opts model.CollectOptions, count int, source model.DataSource) string {
	if d, ok := c.(daysBacker); ok {
		return fmt.Sprintf("已采集最近 %d 天的%s %d 条（来源: %s）", d.DaysBack(opts), kind.Label(), count, source.Label())
	}
	return fmt.Sprintf("%s %d 条已采集完成（来源: %s）", kind.Label(), count, source.Label())
}
