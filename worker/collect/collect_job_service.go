// collect/collect_job_service.go
package collect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
	"digital_insight_go/utils"
)

// ErrAlreadyRunning 已有采集任务在运行
var ErrAlreadyRunning = errors.New("采集任务已在运行中")

// JobProgressMessage 任务进度消息
type JobProgressMessage struct {
	Job       string `json:"job"`
	Type      string `json:"type"` // info, warning, error, progress, success
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Current   *int   `json:"current,omitempty"`
	Total     *int   `json:"total,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Collector 单类采集（由 service.CollectorService 实现）
type Collector interface {
	Collect(ctx context.Context, sessionID string, kind model.Kind, opts model.CollectOptions) (*model.CollectResult, error)
}

// CollectJobService 批量采集任务
type CollectJobService struct {
	collector Collector
	now       func() time.Time

	running     bool
	shouldStop  bool
	current     model.Kind
	results     []*model.CollectResult
	cancel      context.CancelFunc
	statusMutex sync.RWMutex
	wg          sync.WaitGroup
	job         string
}

// NewCollectJobService 创建批量采集任务服务
func NewCollectJobService(collector Collector) *CollectJobService {
	return &CollectJobService{
		collector: collector,
		now:       time.Now,
		job:       "collect_all",
	}
}

func (s *CollectJobService) message(msgType string, kind model.Kind, text string) JobProgressMessage {
	return JobProgressMessage{
		Job:       s.job,
		Type:      msgType,
		Kind:      string(kind),
		Message:   text,
		Timestamp: s.now().UnixMilli(),
	}
}

// tryStart 标记任务开始，已在运行时返回 ErrAlreadyRunning
func (s *CollectJobService) tryStart(ctx context.Context) (context.Context, error) {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	if s.running {
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.shouldStop = false
	s.current = ""
	s.results = nil
	ctx, s.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (s *CollectJobService) finish() {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.shouldStop = false
	s.current = ""
}

// Execute 同步执行采集，kinds 为空时采集全部类型
func (s *CollectJobService) Execute(ctx context.Context, sessionID string, kinds []model.Kind, opts model.CollectOptions, progress func(JobProgressMessage)) ([]*model.CollectResult, error) {
	if progress == nil {
		progress = func(JobProgressMessage) {}
	}
	runCtx, err := s.tryStart(ctx)
	if err != nil {
		progress(s.message("warning", "", "任务已在运行中"))
		return nil, err
	}
	return s.run(runCtx, sessionID, kinds, opts, progress), nil
}

// Start 在后台执行采集，立即返回
func (s *CollectJobService) Start(sessionID string, kinds []model.Kind, opts model.CollectOptions, progress func(JobProgressMessage)) error {
	if progress == nil {
		progress = func(JobProgressMessage) {}
	}
	runCtx, err := s.tryStart(context.Background())
	if err != nil {
		progress(s.message("warning", "", "任务已在运行中"))
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, sessionID, kinds, opts, progress)
	}()
	return nil
}

// Wait 等待后台任务结束
func (s *CollectJobService) Wait() {
	s.wg.Wait()
}

func (s *CollectJobService) run(ctx context.Context, sessionID string, kinds []model.Kind, opts model.CollectOptions, progress func(JobProgressMessage)) []*model.CollectResult {
	defer s.finish()

	if len(kinds) == 0 {
		kinds = model.AllKinds
	}
	total := len(kinds)
	startTime := time.Now()
	progress(s.message("info", "", fmt.Sprintf("开始采集，共 %d 项", total)))

	var results []*model.CollectResult
	for i, kind := range kinds {
		if s.ShouldStop() || ctx.Err() != nil {
			progress(s.message("warning", kind, "采集任务已停止"))
			break
		}

		s.statusMutex.Lock()
		s.current = kind
		s.statusMutex.Unlock()

		current := i + 1
		msg := s.message("progress", kind, fmt.Sprintf("正在采集%s...", kind.Label()))
		msg.Current, msg.Total = &current, &total
		progress(msg)

		res, err := s.collector.Collect(ctx, sessionID, kind, opts)
		if err != nil {
			log.Errorf("采集%s失败: %v", kind.Label(), err)
			progress(s.message("error", kind, fmt.Sprintf("%s采集失败: %v", kind.Label(), err)))
			continue
		}
		results = append(results, res)

		s.statusMutex.Lock()
		s.results = append(s.results, res)
		s.statusMutex.Unlock()

		msgType := "info"
		if res.Source.IsSample() {
			msgType = "warning"
		}
		progress(s.message(msgType, kind, res.Message))
	}

	log.Infof("采集任务结束，耗时: %s", utils.FormatDuration(startTime, time.Now()))
	progress(s.message("success", "", fmt.Sprintf("采集完成，成功 %d/%d 项", len(results), total)))
	return results
}

// Stop 停止采集任务
func (s *CollectJobService) Stop() {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	if s.running {
		s.shouldStop = true
		if s.cancel != nil {
			s.cancel()
		}
		log.Info("收到停止采集任务的请求")
	}
}

// GetStatus 获取任务状态
func (s *CollectJobService) GetStatus() map[string]interface{} {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()

	return map[string]interface{}{
		"job":       s.job,
		"isRunning": s.running,
		"current":   string(s.current),
		"completed": len(s.results),
	}
}

// IsRunning 检查是否正在运行
func (s *CollectJobService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// ShouldStop 检查是否应该停止
func (s *CollectJobService) ShouldStop() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.shouldStop
}
