package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/config"
	"digital_insight_go/model"
	"digital_insight_go/report"
	"digital_insight_go/service"
	"digital_insight_go/store"
	"digital_insight_go/worker/collect"
)

// Deps 服务依赖
type Deps struct {
	Consent   *service.ConsentService
	Collector *service.CollectorService
	Summary   *service.SummaryService
	Analysis  *service.AnalysisService
	Config    *service.ConfigService
	FileStore *store.FileStore
	Reports   *report.Generator
	Jobs      *collect.CollectJobService
	Hub       *collect.Hub
}

// Server HTTP 服务
type Server struct {
	Deps
	cfg        config.ServerConfig
	engine     *gin.Engine
	httpServer *http.Server
	now        func() time.Time
}

func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		Deps:   deps,
		cfg:    cfg,
		engine: gin.New(),
		now:    time.Now,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.SetHTMLTemplate(pageTemplates)
	s.routes()
	return s
}

// Handler 供测试和自定义监听使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/", s.consentPage)
	r.POST("/consent", s.giveConsent)
	r.POST("/withdraw_consent", s.withdrawConsent)
	r.GET("/health", s.health)
	r.GET("/environment", s.environment)

	pages := r.Group("/", s.requireConsentPage())
	pages.GET("/data_collection", s.dataCollectionPage)
	pages.GET("/analyze", s.analyzePage)

	api := r.Group("/", s.requireConsentAPI())
	for _, kind := range model.AllKinds {
		api.POST("/collect_"+string(kind), s.collectKind(kind))
	}
	api.POST("/collect_all", s.collectAll)
	api.POST("/collect_all/stop", s.stopCollectAll)
	api.GET("/collect_all/status", s.collectAllStatus)
	api.GET("/ws/progress", s.progressSocket)

	api.POST("/clear_all_files", s.clearAllFiles)
	api.GET("/list_files", s.listFiles)
	api.GET("/download/:filename", s.downloadFile)
	api.DELETE("/delete/:filename", s.deleteFile)

	api.GET("/get_analysis_data", s.analysisData)
	api.GET("/check_api_key", s.checkAPIKey)
	api.POST("/ai_analysis", s.aiAnalysis)
	api.GET("/get_ai_analysis_data", s.latestAIAnalysis)
	api.GET("/analysis_history", s.analysisHistory)
	api.POST("/export_analysis_html", s.exportHTML)
	api.POST("/export_analysis_pdf", s.exportPDF)

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.updateSettings)
	api.GET("/collection_runs", s.collectionRuns)
}

// Start 开始监听（非阻塞）
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
	}
	log.Infof("✓ HTTP 服务已启动: %s", s.cfg.URL())
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Jobs != nil {
		s.Jobs.Stop()
	}
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
