package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"digital_insight_go/collector"
	"digital_insight_go/config"
	"digital_insight_go/report"
	"digital_insight_go/repository"
	"digital_insight_go/service"
	"digital_insight_go/store"
	"digital_insight_go/web"
	"digital_insight_go/worker/collect"
)

type Application struct {
	cfg              *config.GlobalConfig
	db               *gorm.DB
	fileStore        *store.FileStore
	configService    *service.ConfigService
	collectorService *service.CollectorService
	summaryService   *service.SummaryService
	analysisService  *service.AnalysisService
	consentService   *service.ConsentService
	reports          *report.Generator
	collectJob       *collect.CollectJobService
	hub              *collect.Hub
	server           *web.Server
	instanceLock     *flock.Flock
}

// NewApplication 创建新的应用程序实例
func NewApplication(cfg *config.GlobalConfig) *Application {
	return &Application{cfg: cfg}
}

// InitDatabase 初始化数据库连接
func (app *Application) InitDatabase() error {
	log.Infof("初始化数据库连接（%s）...", app.cfg.Database.Driver)

	db, err := repository.OpenDatabase(app.cfg.Database.Driver, app.cfg.Database.DSN)
	if err != nil {
		return err
	}
	app.db = db
	log.Info("✓ 数据库连接成功，表迁移完成")
	return nil
}

// InitServices 初始化所有服务
func (app *Application) InitServices() error {
	log.Info("========================================")
	log.Info("   初始化应用程序服务")
	log.Info("========================================")

	if err := app.InitDatabase(); err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}

	fileStore, err := store.NewFileStore(app.cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("文件存储初始化失败: %w", err)
	}
	app.fileStore = fileStore

	// 初始化仓库
	configRepo := repository.NewConfigRepository(app.db)
	consentRepo := repository.NewConsentRepository(app.db)
	runRepo := repository.NewCollectionRunRepository(app.db)
	analysisRepo := repository.NewAnalysisRepository(app.db)

	app.configService = service.NewConfigService(configRepo, app.cfg.AI)
	if err := app.configService.EnsureDefaults(); err != nil {
		return fmt.Errorf("初始化默认配置失败: %w", err)
	}

	app.collectorService = service.NewCollectorService(
		collector.NewRegistry(app.cfg.Collector),
		fileStore,
		runRepo,
		app.cfg.Collector,
	)
	app.summaryService = service.NewSummaryService(fileStore)
	app.analysisService = service.NewAnalysisService(
		service.NewAiService(app.cfg.AI),
		app.configService,
		app.summaryService,
		fileStore,
		analysisRepo,
		app.cfg.AI.Language,
	)
	app.consentService = service.NewConsentService(consentRepo, app.cfg.Server.Secret)
	app.reports = report.NewGenerator(fileStore, app.cfg.Report)
	app.collectJob = collect.NewCollectJobService(app.collectorService)
	app.hub = collect.NewHub()

	if app.collectorService.SampleMode() {
		log.Warn("⚠️ 当前为示例数据模式（云端环境或 force_sample），不会读取本机数据")
	}
	log.Info("✓ 所有服务初始化完成")
	return nil
}

// acquireInstanceLock 同一存储目录只允许一个服务实例
func (app *Application) acquireInstanceLock() error {
	lock := flock.New(filepath.Join(app.fileStore.Dir(), ".server.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("获取实例锁失败: %w", err)
	}
	if !locked {
		return fmt.Errorf("已有实例正在使用目录 %s", app.fileStore.Dir())
	}
	app.instanceLock = lock
	return nil
}

// Start 启动 HTTP 服务
func (app *Application) Start() error {
	log.Info("========================================")
	log.Info("   启动数字行为分析服务")
	log.Info("========================================")

	if err := app.acquireInstanceLock(); err != nil {
		return err
	}

	app.server = web.NewServer(app.cfg.Server, web.Deps{
		Consent:   app.consentService,
		Collector: app.collectorService,
		Summary:   app.summaryService,
		Analysis:  app.analysisService,
		Config:    app.configService,
		FileStore: app.fileStore,
		Reports:   app.reports,
		Jobs:      app.collectJob,
		Hub:       app.hub,
	})
	if err := app.server.Start(); err != nil {
		return fmt.Errorf("HTTP服务启动失败: %w", err)
	}

	log.Info("✓ 应用程序已启动")
	return nil
}

// Stop 停止应用程序
func (app *Application) Stop(ctx context.Context) error {
	log.Info("========================================")
	log.Info("   停止应用程序")
	log.Info("========================================")

	if app.server != nil {
		log.Info("关闭HTTP服务...")
		if err := app.server.Shutdown(ctx); err != nil {
			log.Errorf("关闭HTTP服务失败: %v", err)
		}
	}

	if app.collectJob != nil {
		app.collectJob.Stop()
		app.collectJob.Wait()
	}

	if app.db != nil {
		log.Info("关闭数据库连接...")
		if sqlDB, err := app.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if app.instanceLock != nil {
		_ = app.instanceLock.Unlock()
	}

	log.Info("✓ 应用程序已安全停止")
	return nil
}

// waitForShutdown 等待关闭信号
func (app *Application) waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infof("接收到信号: %v，开始优雅关闭...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = app.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ 应用程序优雅关闭完成")
	case <-ctx.Done():
		log.Warn("⚠️ 关闭超时，强制退出")
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
